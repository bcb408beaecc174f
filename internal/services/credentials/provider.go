package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// Credential sources, recorded on SessionCredential.Source.
const (
	SourceEnv     = "env"
	SourceBase64  = "base64"
	SourceURL     = "url"
	SourceS3      = "s3"
	SourceRequest = "request"
)

const maxJarSize = 1 << 20

// Provider owns the session material for every platform. Configured
// credentials are loaded once at startup; request supplied ones live only for
// the request that carried them.
type Provider struct {
	cfg        *config.CredentialsConfig
	fs         afero.Fs
	httpClient *http.Client
	store      storage.CookieStore
	probeURLs  map[models.Platform]string
	now        func() time.Time

	mu    sync.RWMutex
	creds map[models.Platform]*models.SessionCredential
	files map[string]struct{}
}

type Option func(*Provider)

func WithFs(fs afero.Fs) Option {
	return func(p *Provider) {
		p.fs = fs
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithCookieStore enables the S3 cookie-jar source.
func WithCookieStore(store storage.CookieStore) Option {
	return func(p *Provider) {
		p.store = store
	}
}

// WithProbeURL overrides the validation endpoint for a platform. An empty URL
// disables probing for it.
func WithProbeURL(platform models.Platform, url string) Option {
	return func(p *Provider) {
		if url == "" {
			delete(p.probeURLs, platform)
			return
		}
		p.probeURLs[platform] = url
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func NewProvider(cfg *config.CredentialsConfig, opts ...Option) *Provider {
	p := &Provider{
		cfg:        cfg,
		fs:         afero.NewOsFs(),
		httpClient: &http.Client{},
		probeURLs: map[models.Platform]string{
			models.PlatformInstagram: instagramProbeURL,
		},
		now:   time.Now,
		creds: make(map[models.Platform]*models.SessionCredential),
		files: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) platformConfig(platform models.Platform) (config.PlatformCredentialConfig, bool) {
	switch platform {
	case models.PlatformInstagram:
		return p.cfg.Instagram, true
	case models.PlatformYouTube:
		return p.cfg.YouTube, true
	default:
		return config.PlatformCredentialConfig{}, false
	}
}

// Load reads every configured credential source. A configured source that
// cannot be read is a startup error.
func (p *Provider) Load(ctx context.Context) error {
	for _, platform := range []models.Platform{models.PlatformInstagram, models.PlatformYouTube} {
		pc, _ := p.platformConfig(platform)
		if !pc.HasSource() {
			if pc.RequireCredential {
				utils.LogWarn(ctx, "No credential configured for platform that requires one", utils.Fields{
					"platform": platform,
				})
			}
			continue
		}

		cred, err := p.loadOne(ctx, platform, pc)
		if err != nil {
			return fmt.Errorf("failed to load %s credential: %w", platform, err)
		}

		p.mu.Lock()
		p.creds[platform] = cred
		p.mu.Unlock()

		utils.LogInfo(ctx, "Loaded platform credential", utils.Fields{
			"platform": platform,
			"source":   cred.Source,
		})
	}
	return nil
}

func (p *Provider) loadOne(ctx context.Context, platform models.Platform, pc config.PlatformCredentialConfig) (*models.SessionCredential, error) {
	cred := &models.SessionCredential{
		Platform: platform,
		Validity: models.ValidityUnknown,
	}

	switch {
	case pc.SessionID != "":
		cred.Token = strings.TrimSpace(pc.SessionID)
		cred.Source = SourceEnv
	case pc.CookiesBase64 != "":
		jar, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pc.CookiesBase64))
		if err != nil {
			return nil, fmt.Errorf("decode base64 cookie jar: %w", err)
		}
		cred.CookieJar = jar
		cred.Source = SourceBase64
	case pc.CookiesURL != "":
		jar, err := p.fetchJar(ctx, pc.CookiesURL)
		if err != nil {
			return nil, err
		}
		cred.CookieJar = jar
		cred.Source = SourceURL
	case pc.CookiesS3Key != "":
		if p.store == nil {
			return nil, fmt.Errorf("cookie jar key %q configured but S3 is disabled", pc.CookiesS3Key)
		}
		jar, err := p.store.Get(ctx, pc.CookiesS3Key)
		if err != nil {
			return nil, err
		}
		cred.CookieJar = jar
		cred.Source = SourceS3
	}

	if len(cred.CookieJar) > 0 && len(parseCookieJar(cred.CookieJar)) == 0 {
		return nil, fmt.Errorf("cookie jar from %s contains no cookies", cred.Source)
	}
	return cred, nil
}

func (p *Provider) fetchJar(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cookie jar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch cookie jar: unexpected status %d", resp.StatusCode)
	}

	jar, err := io.ReadAll(io.LimitReader(resp.Body, maxJarSize))
	if err != nil {
		return nil, fmt.Errorf("read cookie jar: %w", err)
	}
	return jar, nil
}

// Get returns the credential to use for a request. A non-empty ref is a
// session token supplied by the client and overrides the configured one.
// It returns nil without error when the platform needs no credential.
func (p *Provider) Get(platform models.Platform, ref string) (*models.SessionCredential, error) {
	pc, known := p.platformConfig(platform)
	if !known {
		return nil, nil
	}

	if ref = strings.TrimSpace(ref); ref != "" {
		return &models.SessionCredential{
			Platform: platform,
			Token:    ref,
			Source:   SourceRequest,
			Validity: models.ValidityUnknown,
		}, nil
	}

	p.mu.RLock()
	stored, ok := p.creds[platform]
	var cred models.SessionCredential
	if ok {
		cred = *stored
	}
	p.mu.RUnlock()

	if ok {
		return &cred, nil
	}
	if pc.RequireCredential {
		return nil, utils.NewResolutionError(
			utils.KindMissingCredential,
			fmt.Sprintf("a %s session credential is required", platform),
			nil,
		)
	}
	return nil, nil
}

// Has reports whether a configured credential is loaded for platform.
func (p *Provider) Has(platform models.Platform) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.creds[platform]
	return ok
}

// Validate probes the platform with cred. Probe failures of any sort make the
// credential invalid; they are logged, never returned.
func (p *Provider) Validate(ctx context.Context, cred *models.SessionCredential) bool {
	if cred == nil {
		return true
	}

	configured := cred.Source != SourceRequest
	if configured {
		pc, _ := p.platformConfig(cred.Platform)
		if !pc.Validate {
			return true
		}
		if valid, fresh := p.cachedValidity(cred.Platform); fresh {
			cred.Validity = valid
			return valid == models.ValidityValid
		}
	}

	probeURL, ok := p.probeURLs[cred.Platform]
	if !ok {
		cred.Validity = models.ValidityValid
		cred.ValidatedAt = p.now()
		return true
	}

	err := p.probe(ctx, probeURL, cred)
	cred.ValidatedAt = p.now()
	if err != nil {
		cred.Validity = models.ValidityInvalid
		utils.LogWarn(ctx, "Session credential failed validation", utils.Fields{
			"platform": cred.Platform,
			"source":   cred.Source,
			"error":    err.Error(),
		})
	} else {
		cred.Validity = models.ValidityValid
	}

	if configured {
		p.mu.Lock()
		if stored, ok := p.creds[cred.Platform]; ok {
			stored.Validity = cred.Validity
			stored.ValidatedAt = cred.ValidatedAt
		}
		p.mu.Unlock()
	}

	return err == nil
}

func (p *Provider) cachedValidity(platform models.Platform) (models.Validity, bool) {
	if p.cfg.RevalidateInterval <= 0 {
		return models.ValidityUnknown, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	stored, ok := p.creds[platform]
	if !ok || stored.Validity == models.ValidityUnknown {
		return models.ValidityUnknown, false
	}
	if p.now().Sub(stored.ValidatedAt) >= p.cfg.RevalidateInterval {
		return models.ValidityUnknown, false
	}
	return stored.Validity, true
}

// Close drops in-memory credentials and removes any cookie files still on disk.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for path := range p.files {
		if err := p.fs.Remove(path); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", path, err)
		}
		delete(p.files, path)
	}
	for platform := range p.creds {
		delete(p.creds, platform)
	}
	return firstErr
}
