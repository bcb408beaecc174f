package models

import (
	"time"

	"github.com/samber/mo"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformGeneric   Platform = "generic"
)

// ParsePlatform maps a user supplied hint to a Platform. Empty and unknown
// hints return false so the caller can fall back to host detection.
func ParsePlatform(hint string) (Platform, bool) {
	switch Platform(hint) {
	case PlatformInstagram, PlatformYouTube, PlatformGeneric:
		return Platform(hint), true
	default:
		return "", false
	}
}

// MediaRequest is created per incoming call and discarded after resolution.
type MediaRequest struct {
	RawURL        string
	PlatformHint  Platform
	CredentialRef string
}

type Validity string

const (
	ValidityUnknown Validity = "unknown"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
)

// SessionCredential is platform authentication material. It lives in process
// memory only; on-disk copies are per-request temp files.
type SessionCredential struct {
	Platform    Platform
	Token       string
	CookieJar   []byte
	Source      string
	ValidatedAt time.Time
	Validity    Validity
}

// FormatDescriptor is one stream variant reported by the extraction tool.
// Height and AudioBitrate are None when the tool did not report them.
type FormatDescriptor struct {
	FormatID     string
	HasVideo     bool
	HasAudio     bool
	Height       mo.Option[int]
	AudioBitrate mo.Option[float64]
	URL          string
}

func (f FormatDescriptor) IsCombined() bool {
	return f.HasVideo && f.HasAudio
}

func (f FormatDescriptor) IsAudioOnly() bool {
	return f.HasAudio && !f.HasVideo
}

func (f FormatDescriptor) IsVideoOnly() bool {
	return f.HasVideo && !f.HasAudio
}

type RawMetadata struct {
	ID        string
	Title     string
	Extractor string
	Duration  float64
	Formats   []FormatDescriptor
}

type SelectionResult struct {
	VideoURL string `json:"video_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Combined bool   `json:"combined"`
}

func (s SelectionResult) Successful() bool {
	return s.VideoURL != "" || s.AudioURL != ""
}

// Resolution is the pipeline's answer for one request.
type Resolution struct {
	Platform     Platform
	CanonicalURL string
	Title        string
	Selection    SelectionResult
}

type ResolveRequest struct {
	URL        string `json:"url" form:"url" binding:"required"`
	Credential string `json:"credential,omitempty" form:"credential"`
	Platform   string `json:"platform,omitempty" form:"platform"`
}

type ResolveResponse struct {
	Status       string   `json:"status"`
	Platform     Platform `json:"platform"`
	CanonicalURL string   `json:"canonical_url"`
	Title        string   `json:"title,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
	Combined     bool     `json:"combined"`
}

type LegacyReelRequest struct {
	URL       string `form:"url" binding:"required"`
	SessionID string `form:"session_id"`
}

type LegacyReelResponse struct {
	VideoURL string `json:"video_url"`
}
