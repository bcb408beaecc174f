package extractor

import (
	"context"
	"errors"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/models"
)

// Distinct malformed-output failures. Each one points at a different operator
// action: the tool printed nothing, printed garbage, or changed its schema.
var (
	ErrEmptyOutput     = errors.New("extraction tool produced no output")
	ErrMalformedOutput = errors.New("extraction tool output is not a JSON object")
	ErrMissingFormats  = errors.New("extraction tool output has no formats collection")
)

// Target is what a single extraction works on.
type Target struct {
	CanonicalURL string
	Platform     models.Platform
	// CookiesPath is a Netscape cookie jar on disk, empty when no credential is used.
	CookiesPath string
}

// Extractor turns a canonical URL into raw stream metadata without downloading anything.
type Extractor interface {
	Extract(ctx context.Context, target Target) (*models.RawMetadata, error)
}

// New builds the extractor chain for the configured backend. The native
// backend only understands YouTube; other platforms keep going through yt-dlp.
func New(cfg *config.ResolverConfig) Extractor {
	ytdlp := NewYtDlp(cfg)
	if cfg.ExtractorBackend != config.ExtractorBackendNative {
		return ytdlp
	}

	return NewPlatformExtractor(ytdlp, map[models.Platform]Extractor{
		models.PlatformYouTube: NewNativeYouTube(cfg.ExtractTimeout),
	})
}

// PlatformExtractor routes a target to a platform specific extractor.
type PlatformExtractor struct {
	fallback   Extractor
	byPlatform map[models.Platform]Extractor
}

var _ Extractor = (*PlatformExtractor)(nil)

func NewPlatformExtractor(fallback Extractor, byPlatform map[models.Platform]Extractor) *PlatformExtractor {
	return &PlatformExtractor{
		fallback:   fallback,
		byPlatform: byPlatform,
	}
}

func (p *PlatformExtractor) Extract(ctx context.Context, target Target) (*models.RawMetadata, error) {
	if e, ok := p.byPlatform[target.Platform]; ok {
		return e.Extract(ctx, target)
	}
	return p.fallback.Extract(ctx, target)
}
