package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

var contentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	instagramHosts = map[string]bool{
		"instagram.com":     true,
		"www.instagram.com": true,
		"m.instagram.com":   true,
	}
	youtubeHosts = map[string]bool{
		"youtube.com":       true,
		"www.youtube.com":   true,
		"m.youtube.com":     true,
		"music.youtube.com": true,
	}
	youtubeShortHosts = map[string]bool{
		"youtu.be":     true,
		"www.youtu.be": true,
	}
)

// DetectPlatform guesses the platform from the URL host. Anything that is not
// a known host, including unparsable input, is generic.
func DetectPlatform(rawURL string) models.Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return models.PlatformGeneric
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case instagramHosts[host]:
		return models.PlatformInstagram
	case youtubeHosts[host], youtubeShortHosts[host]:
		return models.PlatformYouTube
	default:
		return models.PlatformGeneric
	}
}

// Normalize canonicalizes rawURL for the extraction tool. Equivalent inputs
// always produce byte-identical output.
func Normalize(rawURL string, platform models.Platform) (string, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return "", err
	}

	switch platform {
	case models.PlatformInstagram:
		return normalizeInstagram(u)
	case models.PlatformYouTube:
		return normalizeYouTube(u)
	default:
		return normalizeGeneric(u), nil
	}
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, invalidURL("URL is empty", nil)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, invalidURL("URL could not be parsed", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, invalidURL(fmt.Sprintf("unsupported URL scheme %q", u.Scheme), nil)
	}
	if u.Hostname() == "" {
		return nil, invalidURL("URL has no host", nil)
	}

	return u, nil
}

// normalizeInstagram takes the trailing path segment as the shortcode, so
// /p/<code>/, /reel/<code>/ and /<user>/reel/<code>/ all resolve.
func normalizeInstagram(u *url.URL) (string, error) {
	segments := pathSegments(u.Path)
	if len(segments) < 2 {
		return "", invalidURL("Instagram URL must look like /p/<shortcode>/ or /reel/<shortcode>/", nil)
	}

	shortcode := segments[len(segments)-1]
	if !contentIDPattern.MatchString(shortcode) {
		return "", invalidURL(fmt.Sprintf("invalid Instagram shortcode %q", shortcode), nil)
	}

	return "https://www.instagram.com/p/" + shortcode + "/", nil
}

// normalizeYouTube tries the v query parameter, then /shorts/<id>, then the
// youtu.be path.
func normalizeYouTube(u *url.URL) (string, error) {
	host := strings.ToLower(u.Hostname())

	var videoID string
	switch {
	case youtubeShortHosts[host]:
		videoID = strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), "/")
	default:
		videoID = u.Query().Get("v")
		if videoID == "" {
			if segments := pathSegments(u.Path); len(segments) >= 2 && segments[0] == "shorts" {
				videoID = segments[len(segments)-1]
			}
		}
	}

	if videoID == "" {
		return "", invalidURL("no video identifier found in YouTube URL", nil)
	}
	if !contentIDPattern.MatchString(videoID) {
		return "", invalidURL(fmt.Sprintf("invalid YouTube video identifier %q", videoID), nil)
	}

	return "https://www.youtube.com/watch?v=" + videoID, nil
}

func normalizeGeneric(u *url.URL) string {
	canonical := *u
	canonical.Scheme = strings.ToLower(u.Scheme)
	canonical.Host = strings.ToLower(u.Host)
	canonical.Fragment = ""
	canonical.RawFragment = ""
	return canonical.String()
}

func pathSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func invalidURL(detail string, err error) error {
	return utils.NewResolutionError(utils.KindInvalidURL, detail, err)
}
