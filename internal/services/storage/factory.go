package storage

import (
	"context"
	"fmt"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// NewCookieStore returns nil when no bucket is configured.
func NewCookieStore(ctx context.Context, cfg *config.S3Config) (CookieStore, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	utils.LogInfo(ctx, "Creating S3 cookie store", utils.Fields{
		"bucket":   cfg.BucketName,
		"endpoint": cfg.EndpointURL,
	})
	store, err := NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}

	return store, nil
}
