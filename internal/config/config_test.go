package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INSTAGRAM_SESSION_ID", "")
	t.Setenv("EXTRACTOR_BACKEND", "")
	t.Setenv("MAX_CONCURRENT_RESOLUTIONS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Resolver.MaxConcurrentResolutions)
	assert.Equal(t, ExtractorBackendYtDlp, cfg.Resolver.ExtractorBackend)
	assert.Equal(t, 30*time.Second, cfg.Resolver.ExtractTimeout)
	assert.Equal(t, 10*time.Second, cfg.Credentials.ProbeTimeout)
	assert.True(t, cfg.Credentials.Instagram.RequireCredential)
	assert.True(t, cfg.Credentials.Instagram.Validate)
	assert.False(t, cfg.Credentials.YouTube.RequireCredential)
	assert.False(t, cfg.Credentials.Instagram.HasSource())
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadPlatformOverrides(t *testing.T) {
	t.Setenv("INSTAGRAM_SESSION_ID", "abc")
	t.Setenv("INSTAGRAM_VALIDATE_CREDENTIAL", "false")
	t.Setenv("YOUTUBE_COOKIES_URL", "http://cookies.local/jar.txt")
	t.Setenv("MAX_CONCURRENT_RESOLUTIONS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Resolver.MaxConcurrentResolutions)
	assert.Equal(t, "abc", cfg.Credentials.Instagram.SessionID)
	assert.False(t, cfg.Credentials.Instagram.Validate)
	assert.True(t, cfg.Credentials.YouTube.HasSource())
}

func TestLoadRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "EXTRACTOR_BACKEND", value: "youtube-dl"},
		{name: "bad timeout", key: "EXTRACT_TIMEOUT", value: "soon"},
		{name: "zero pool", key: "MAX_CONCURRENT_RESOLUTIONS", value: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
