package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/mo"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// NativeYouTube resolves YouTube formats in-process instead of shelling out.
// It cannot use cookie jars, so gated videos still need the yt-dlp backend.
type NativeYouTube struct {
	client  *youtube.Client
	timeout time.Duration
}

var _ Extractor = (*NativeYouTube)(nil)

func NewNativeYouTube(timeout time.Duration) *NativeYouTube {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NativeYouTube{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
		timeout: timeout,
	}
}

func (n *NativeYouTube) Extract(ctx context.Context, target Target) (*models.RawMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	videoID, err := videoIDFromCanonical(target.CanonicalURL)
	if err != nil {
		return nil, malformed(err)
	}

	if target.CookiesPath != "" {
		utils.LogWarn(ctx, "Native YouTube backend ignores cookie jars", utils.Fields{
			"video_id": videoID,
		})
	}

	video, err := n.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, utils.NewResolutionError(utils.KindToolExecution, "native YouTube extraction failed", err)
	}

	meta := &models.RawMetadata{
		ID:        video.ID,
		Title:     video.Title,
		Extractor: "youtube-native",
		Duration:  video.Duration.Seconds(),
		Formats:   make([]models.FormatDescriptor, 0, len(video.Formats)),
	}

	for i := range video.Formats {
		format := &video.Formats[i]

		streamURL := format.URL
		if streamURL == "" {
			// Ciphered formats only get a URL after signature decoding.
			streamURL, err = n.client.GetStreamURLContext(ctx, video, format)
			if err != nil {
				utils.LogDebug(ctx, "Skipping undecipherable format", utils.Fields{
					"itag":  format.ItagNo,
					"error": err.Error(),
				})
				continue
			}
		}

		meta.Formats = append(meta.Formats, nativeDescriptor(format, streamURL))
	}

	return meta, nil
}

func nativeDescriptor(format *youtube.Format, streamURL string) models.FormatDescriptor {
	d := models.FormatDescriptor{
		FormatID: strconv.Itoa(format.ItagNo),
		HasVideo: strings.HasPrefix(format.MimeType, "video/"),
		HasAudio: format.AudioChannels > 0,
		URL:      streamURL,
	}
	if d.HasVideo && format.Height > 0 {
		d.Height = mo.Some(format.Height)
	}
	if d.HasAudio {
		bitrate := format.AverageBitrate
		if bitrate == 0 {
			bitrate = format.Bitrate
		}
		if bitrate > 0 {
			d.AudioBitrate = mo.Some(float64(bitrate) / 1000)
		}
	}
	return d
}

func videoIDFromCanonical(canonicalURL string) (string, error) {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return "", fmt.Errorf("parse canonical URL: %w", err)
	}
	id := u.Query().Get("v")
	if id == "" {
		return "", fmt.Errorf("canonical URL %q carries no video id", canonicalURL)
	}
	return id, nil
}
