package resolver

import (
	"context"
	"time"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/extractor"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// CredentialProvider is the part of the credential service the pipeline needs.
type CredentialProvider interface {
	Get(platform models.Platform, ref string) (*models.SessionCredential, error)
	Validate(ctx context.Context, cred *models.SessionCredential) bool
	Materialize(cred *models.SessionCredential) (string, func(), error)
}

// Resolver runs one request through normalize, credential, admission,
// extraction and selection. Every error it returns is a *utils.ResolutionError.
type Resolver struct {
	credentials CredentialProvider
	governor    *Governor
	extractor   extractor.Extractor
}

func New(credentials CredentialProvider, governor *Governor, ext extractor.Extractor) *Resolver {
	return &Resolver{
		credentials: credentials,
		governor:    governor,
		extractor:   ext,
	}
}

func (r *Resolver) Governor() *Governor {
	return r.governor
}

func (r *Resolver) Resolve(ctx context.Context, req models.MediaRequest) (*models.Resolution, error) {
	start := time.Now()

	res, err := r.resolve(ctx, req)
	if err != nil {
		re := Classify(err)
		utils.LogWarn(ctx, "Resolution failed", utils.Fields{
			"kind":     re.Kind,
			"detail":   re.Detail,
			"duration": time.Since(start).String(),
		})
		return nil, re
	}

	utils.LogInfo(ctx, "Resolution succeeded", utils.Fields{
		"platform":      res.Platform,
		"canonical_url": res.CanonicalURL,
		"combined":      res.Selection.Combined,
		"duration":      time.Since(start).String(),
	})
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req models.MediaRequest) (*models.Resolution, error) {
	platform := req.PlatformHint
	if platform == "" {
		platform = DetectPlatform(req.RawURL)
	}

	canonical, err := Normalize(req.RawURL, platform)
	if err != nil {
		return nil, err
	}
	utils.LogDebug(ctx, "Normalized URL", utils.Fields{
		"platform":      platform,
		"canonical_url": canonical,
	})

	cred, err := r.credentials.Get(platform, req.CredentialRef)
	if err != nil {
		return nil, err
	}
	if cred != nil && !r.credentials.Validate(ctx, cred) {
		return nil, utils.NewResolutionError(
			utils.KindInvalidCredential,
			"session credential was rejected by the platform",
			nil,
		)
	}

	permit, ok := r.governor.TryAdmit()
	if !ok {
		return nil, utils.NewResolutionError(utils.KindOverloaded, "too many resolutions in flight", nil)
	}
	defer permit.Release()

	cookiesPath, cleanup, err := r.credentials.Materialize(cred)
	if err != nil {
		return nil, utils.NewResolutionError(utils.KindToolExecution, "could not prepare credential for extraction", err)
	}
	defer cleanup()

	meta, err := r.extractor.Extract(ctx, extractor.Target{
		CanonicalURL: canonical,
		Platform:     platform,
		CookiesPath:  cookiesPath,
	})
	if err != nil {
		return nil, err
	}

	selection, err := Select(meta.Formats)
	if err != nil {
		return nil, err
	}

	return &models.Resolution{
		Platform:     platform,
		CanonicalURL: canonical,
		Title:        meta.Title,
		Selection:    selection,
	}, nil
}
