package app

import (
	"context"
	"fmt"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/services/credentials"
	"github.com/denisAlshanov/mediaresolver/internal/services/extractor"
	"github.com/denisAlshanov/mediaresolver/internal/services/resolver"
	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// App holds the resolution pipeline and the services it is built from.
type App struct {
	Config      *config.Config
	Store       storage.CookieStore
	Credentials *credentials.Provider
	Governor    *resolver.Governor
	Tool        *extractor.YtDlp
	Resolver    *resolver.Resolver
}

// Build wires every service from cfg and loads configured credentials.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.NewCookieStore(ctx, &cfg.S3)
	if err != nil {
		return nil, err
	}

	opts := []credentials.Option{}
	if store != nil {
		opts = append(opts, credentials.WithCookieStore(store))
	}
	provider := credentials.NewProvider(&cfg.Credentials, opts...)
	if err := provider.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	governor := resolver.NewGovernor(cfg.Resolver.MaxConcurrentResolutions)
	tool := extractor.NewYtDlp(&cfg.Resolver)
	if err := tool.Available(); err != nil {
		utils.LogWarn(ctx, "Extraction tool is not installed; resolutions will fail", utils.Fields{
			"error": err.Error(),
		})
	}

	utils.LogInfo(ctx, "Resolution pipeline ready", utils.Fields{
		"backend":         cfg.Resolver.ExtractorBackend,
		"max_concurrent":  governor.Capacity(),
		"extract_timeout": cfg.Resolver.ExtractTimeout.String(),
	})

	return &App{
		Config:      cfg,
		Store:       store,
		Credentials: provider,
		Governor:    governor,
		Tool:        tool,
		Resolver:    resolver.New(provider, governor, extractor.New(&cfg.Resolver)),
	}, nil
}

func (a *App) Close() error {
	return a.Credentials.Close()
}
