package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ExtractorBackendYtDlp  = "ytdlp"
	ExtractorBackendNative = "native"
)

type Config struct {
	Server      ServerConfig
	API         APIConfig
	Resolver    ResolverConfig
	Credentials CredentialsConfig
	S3          S3Config
	LogLevel    string
}

type ServerConfig struct {
	Port string
	Host string
}

type APIConfig struct {
	APIKey            string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type ResolverConfig struct {
	MaxConcurrentResolutions int
	ExtractorPath            string
	ExtractorBackend         string
	ExtractTimeout           time.Duration
}

type CredentialsConfig struct {
	ProbeTimeout       time.Duration
	RevalidateInterval time.Duration
	TempDir            string
	Instagram          PlatformCredentialConfig
	YouTube            PlatformCredentialConfig
}

// PlatformCredentialConfig lists where a platform's session material can come
// from. The first non-empty source wins: session id, base64 jar, URL, S3 key.
type PlatformCredentialConfig struct {
	SessionID         string
	CookiesBase64     string
	CookiesURL        string
	CookiesS3Key      string
	RequireCredential bool
	Validate          bool
}

func (p PlatformCredentialConfig) HasSource() bool {
	return p.SessionID != "" || p.CookiesBase64 != "" || p.CookiesURL != "" || p.CookiesS3Key != ""
}

// S3Config is optional; an empty bucket disables the S3 cookie source.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
}

func (s S3Config) Enabled() bool {
	return s.BucketName != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}
	var err error

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "5000")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// API configuration
	cfg.API.APIKey = getEnv("API_KEY", "")
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 60)
	if cfg.API.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", "1m"); err != nil {
		return nil, err
	}

	// Resolver configuration
	cfg.Resolver.MaxConcurrentResolutions = getEnvInt("MAX_CONCURRENT_RESOLUTIONS", 5)
	if cfg.Resolver.MaxConcurrentResolutions < 1 {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_RESOLUTIONS: must be at least 1")
	}
	cfg.Resolver.ExtractorPath = getEnv("EXTRACTOR_PATH", "yt-dlp")
	cfg.Resolver.ExtractorBackend = getEnv("EXTRACTOR_BACKEND", ExtractorBackendYtDlp)
	switch cfg.Resolver.ExtractorBackend {
	case ExtractorBackendYtDlp, ExtractorBackendNative:
	default:
		return nil, fmt.Errorf("invalid EXTRACTOR_BACKEND %q: expected %s or %s",
			cfg.Resolver.ExtractorBackend, ExtractorBackendYtDlp, ExtractorBackendNative)
	}
	if cfg.Resolver.ExtractTimeout, err = getEnvDuration("EXTRACT_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	// Credential configuration
	if cfg.Credentials.ProbeTimeout, err = getEnvDuration("CREDENTIAL_PROBE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Credentials.RevalidateInterval, err = getEnvDuration("CREDENTIAL_REVALIDATE_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	cfg.Credentials.TempDir = getEnv("CREDENTIAL_TEMP_DIR", os.TempDir())
	cfg.Credentials.Instagram = loadPlatformCredentials("INSTAGRAM", true)
	cfg.Credentials.YouTube = loadPlatformCredentials("YOUTUBE", false)

	// S3 configuration, only used as a cookie-jar source
	cfg.S3.Region = getEnv("AWS_REGION", "us-east-1")
	cfg.S3.BucketName = getEnv("S3_BUCKET_NAME", "")
	cfg.S3.EndpointURL = getEnv("AWS_ENDPOINT_URL", "")
	cfg.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	return cfg, nil
}

func loadPlatformCredentials(prefix string, required bool) PlatformCredentialConfig {
	return PlatformCredentialConfig{
		SessionID:         getEnv(prefix+"_SESSION_ID", ""),
		CookiesBase64:     getEnv(prefix+"_COOKIES_B64", ""),
		CookiesURL:        getEnv(prefix+"_COOKIES_URL", ""),
		CookiesS3Key:      getEnv(prefix+"_COOKIES_S3_KEY", ""),
		RequireCredential: getEnvBool(prefix+"_REQUIRE_CREDENTIAL", required),
		Validate:          getEnvBool(prefix+"_VALIDATE_CREDENTIAL", required),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
