package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

func TestDetectPlatform(t *testing.T) {
	testCases := []struct {
		input    string
		expected models.Platform
	}{
		{"https://www.instagram.com/reel/ABC123/", models.PlatformInstagram},
		{"https://instagram.com/p/ABC123/", models.PlatformInstagram},
		{"https://M.Instagram.com/p/ABC123/", models.PlatformInstagram},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", models.PlatformYouTube},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube},
		{"https://vimeo.com/12345", models.PlatformGeneric},
		{"::not a url", models.PlatformGeneric},
		{"", models.PlatformGeneric},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectPlatform(tc.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		platform models.Platform
		expected string
	}{
		{
			name:     "instagram reel with tracking query",
			input:    "https://www.instagram.com/reel/ABC123/?igsh=xyz",
			platform: models.PlatformInstagram,
			expected: "https://www.instagram.com/p/ABC123/",
		},
		{
			name:     "instagram post without trailing slash",
			input:    "https://instagram.com/p/ABC123",
			platform: models.PlatformInstagram,
			expected: "https://www.instagram.com/p/ABC123/",
		},
		{
			name:     "instagram user scoped reel",
			input:    "http://instagram.com/someone/reel/C_x-9/",
			platform: models.PlatformInstagram,
			expected: "https://www.instagram.com/p/C_x-9/",
		},
		{
			name:     "instagram surrounding whitespace",
			input:    "  https://www.instagram.com/p/ABC123/  ",
			platform: models.PlatformInstagram,
			expected: "https://www.instagram.com/p/ABC123/",
		},
		{
			name:     "youtube watch with extra params",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL1",
			platform: models.PlatformYouTube,
			expected: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "youtube shorts",
			input:    "https://youtube.com/shorts/dQw4w9WgXcQ?feature=share",
			platform: models.PlatformYouTube,
			expected: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "youtu.be",
			input:    "https://youtu.be/dQw4w9WgXcQ?si=abc",
			platform: models.PlatformYouTube,
			expected: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "generic lowercases host and drops fragment",
			input:    "HTTPS://Example.COM/Video/1?x=1#t=10",
			platform: models.PlatformGeneric,
			expected: "https://example.com/Video/1?x=1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.input, tc.platform)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)

			again, err := Normalize(got, tc.platform)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalizing a canonical URL must not change it")
		})
	}
}

func TestNormalizeEquivalentYouTubeForms(t *testing.T) {
	shorts, err := Normalize("https://www.youtube.com/shorts/abcDEF_123", models.PlatformYouTube)
	require.NoError(t, err)
	watch, err := Normalize("https://www.youtube.com/watch?v=abcDEF_123", models.PlatformYouTube)
	require.NoError(t, err)
	short, err := Normalize("https://youtu.be/abcDEF_123", models.PlatformYouTube)
	require.NoError(t, err)

	assert.Equal(t, watch, shorts)
	assert.Equal(t, watch, short)
}

func TestNormalizeRejects(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		platform models.Platform
	}{
		{"empty", "", models.PlatformGeneric},
		{"blank", "   ", models.PlatformInstagram},
		{"relative", "/p/ABC123/", models.PlatformInstagram},
		{"ftp scheme", "ftp://www.instagram.com/p/ABC123/", models.PlatformInstagram},
		{"no host", "https:///p/ABC123/", models.PlatformInstagram},
		{"instagram profile only", "https://www.instagram.com/someone/", models.PlatformInstagram},
		{"instagram bad shortcode", "https://www.instagram.com/p/AB%20C/", models.PlatformInstagram},
		{"youtube without id", "https://www.youtube.com/feed/trending", models.PlatformYouTube},
		{"youtube shorts without id", "https://www.youtube.com/shorts/", models.PlatformYouTube},
		{"youtube bad id", "https://www.youtube.com/watch?v=a%2Fb", models.PlatformYouTube},
		{"youtu.be without id", "https://youtu.be/", models.PlatformYouTube},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.input, tc.platform)
			require.Error(t, err)
			assert.True(t, utils.IsKind(err, utils.KindInvalidURL), "got %v", err)
		})
	}
}
