package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

const sampleJar = "# Netscape HTTP Cookie File\n" +
	"#HttpOnly_.instagram.com\tTRUE\t/\tTRUE\t1999999999\tsessionid\tjar-session\n" +
	".instagram.com\tTRUE\t/\tTRUE\t1999999999\tcsrftoken\tcsrf\n" +
	".example.com\tTRUE\t/\tFALSE\t0\tother\tvalue\n"

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) BucketName() string { return "cookies" }

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte) error {
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func baseConfig() *config.CredentialsConfig {
	return &config.CredentialsConfig{
		ProbeTimeout: time.Second,
		TempDir:      "/tmp",
		Instagram:    config.PlatformCredentialConfig{RequireCredential: true, Validate: true},
		YouTube:      config.PlatformCredentialConfig{},
	}
}

// probeServer accepts requests whose sessionid cookie equals goodSession.
func probeServer(t *testing.T, goodSession string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, instagramAppID, r.Header.Get("X-IG-App-ID"))
		c, err := r.Cookie("sessionid")
		if err != nil || c.Value != goodSession {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"user":{"username":"instagram"}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadFromSessionID(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.SessionID = " abc123 "
	p := NewProvider(cfg, WithFs(afero.NewMemMapFs()))

	require.NoError(t, p.Load(context.Background()))

	cred, err := p.Get(models.PlatformInstagram, "")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "abc123", cred.Token)
	assert.Equal(t, SourceEnv, cred.Source)
	assert.Equal(t, models.ValidityUnknown, cred.Validity)
}

func TestLoadFromBase64(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.CookiesBase64 = base64.StdEncoding.EncodeToString([]byte(sampleJar))
	p := NewProvider(cfg)

	require.NoError(t, p.Load(context.Background()))
	cred, err := p.Get(models.PlatformInstagram, "")
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleJar), cred.CookieJar)
	assert.Equal(t, SourceBase64, cred.Source)
}

func TestLoadRejectsBadBase64(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.CookiesBase64 = "%%%not base64"
	assert.Error(t, NewProvider(cfg).Load(context.Background()))
}

func TestLoadRejectsEmptyJar(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.CookiesBase64 = base64.StdEncoding.EncodeToString([]byte("# Netscape HTTP Cookie File\n"))
	assert.Error(t, NewProvider(cfg).Load(context.Background()))
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jar.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sampleJar))
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.Instagram.CookiesURL = srv.URL + "/jar.txt"
	p := NewProvider(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, p.Load(context.Background()))

	cred, err := p.Get(models.PlatformInstagram, "")
	require.NoError(t, err)
	assert.Equal(t, SourceURL, cred.Source)

	cfg.Instagram.CookiesURL = srv.URL + "/missing"
	assert.Error(t, NewProvider(cfg, WithHTTPClient(srv.Client())).Load(context.Background()))
}

func TestLoadFromS3(t *testing.T) {
	cfg := baseConfig()
	cfg.YouTube.CookiesS3Key = "jars/youtube.txt"
	store := &fakeStore{objects: map[string][]byte{
		"jars/youtube.txt": []byte(".youtube.com\tTRUE\t/\tTRUE\t0\tSID\tyt\n"),
	}}

	p := NewProvider(cfg, WithCookieStore(store))
	require.NoError(t, p.Load(context.Background()))
	assert.True(t, p.Has(models.PlatformYouTube))

	cfg.YouTube.CookiesS3Key = "jars/missing.txt"
	err := NewProvider(cfg, WithCookieStore(store)).Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cfg.YouTube.CookiesS3Key = "jars/youtube.txt"
	assert.Error(t, NewProvider(cfg).Load(context.Background()), "S3 key without a store must fail")
}

func TestGetMissingCredential(t *testing.T) {
	p := NewProvider(baseConfig())
	require.NoError(t, p.Load(context.Background()))

	_, err := p.Get(models.PlatformInstagram, "")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindMissingCredential))

	cred, err := p.Get(models.PlatformYouTube, "")
	require.NoError(t, err)
	assert.Nil(t, cred, "optional platform without credential")

	cred, err = p.Get(models.PlatformGeneric, "ignored")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestGetRequestOverride(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.SessionID = "configured"
	p := NewProvider(cfg)
	require.NoError(t, p.Load(context.Background()))

	cred, err := p.Get(models.PlatformInstagram, "from-request")
	require.NoError(t, err)
	assert.Equal(t, "from-request", cred.Token)
	assert.Equal(t, SourceRequest, cred.Source)
}

func TestValidate(t *testing.T) {
	srv := probeServer(t, "good", nil)

	cfg := baseConfig()
	p := NewProvider(cfg, WithHTTPClient(srv.Client()), WithProbeURL(models.PlatformInstagram, srv.URL))

	good := &models.SessionCredential{Platform: models.PlatformInstagram, Token: "good", Source: SourceRequest}
	assert.True(t, p.Validate(context.Background(), good))
	assert.Equal(t, models.ValidityValid, good.Validity)
	assert.False(t, good.ValidatedAt.IsZero())

	bad := &models.SessionCredential{Platform: models.PlatformInstagram, Token: "expired", Source: SourceRequest}
	assert.False(t, p.Validate(context.Background(), bad))
	assert.Equal(t, models.ValidityInvalid, bad.Validity)

	jar := &models.SessionCredential{Platform: models.PlatformInstagram, CookieJar: []byte(sampleJar), Source: SourceRequest}
	assert.False(t, p.Validate(context.Background(), jar), "jar session value is not the accepted one")

	assert.True(t, p.Validate(context.Background(), nil))
}

func TestValidateUnreachableProbeIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewProvider(baseConfig(), WithProbeURL(models.PlatformInstagram, url))
	cred := &models.SessionCredential{Platform: models.PlatformInstagram, Token: "x", Source: SourceRequest}
	assert.False(t, p.Validate(context.Background(), cred))
}

func TestValidateProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := baseConfig()
	cfg.ProbeTimeout = 30 * time.Millisecond
	p := NewProvider(cfg, WithHTTPClient(srv.Client()), WithProbeURL(models.PlatformInstagram, srv.URL))

	cred := &models.SessionCredential{Platform: models.PlatformInstagram, Token: "x", Source: SourceRequest}
	assert.False(t, p.Validate(context.Background(), cred))
}

func TestValidateWithoutProbeIsValid(t *testing.T) {
	cfg := baseConfig()
	cfg.YouTube.Validate = true
	p := NewProvider(cfg)

	cred := &models.SessionCredential{Platform: models.PlatformYouTube, Token: "x", Source: SourceRequest}
	assert.True(t, p.Validate(context.Background(), cred))
}

func TestValidateSkippedWhenDisabled(t *testing.T) {
	var hits atomic.Int32
	srv := probeServer(t, "good", &hits)

	cfg := baseConfig()
	cfg.Instagram.Validate = false
	cfg.Instagram.SessionID = "anything"
	p := NewProvider(cfg, WithHTTPClient(srv.Client()), WithProbeURL(models.PlatformInstagram, srv.URL))
	require.NoError(t, p.Load(context.Background()))

	cred, err := p.Get(models.PlatformInstagram, "")
	require.NoError(t, err)
	assert.True(t, p.Validate(context.Background(), cred))
	assert.Zero(t, hits.Load())

	override, err := p.Get(models.PlatformInstagram, "bad")
	require.NoError(t, err)
	assert.False(t, p.Validate(context.Background(), override), "request credentials are always probed")
	assert.Equal(t, int32(1), hits.Load())
}

func TestValidateReusesRecentResult(t *testing.T) {
	var hits atomic.Int32
	srv := probeServer(t, "good", &hits)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := baseConfig()
	cfg.Instagram.SessionID = "good"
	cfg.RevalidateInterval = time.Minute
	p := NewProvider(cfg,
		WithHTTPClient(srv.Client()),
		WithProbeURL(models.PlatformInstagram, srv.URL),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, p.Load(context.Background()))

	for i := 0; i < 3; i++ {
		cred, err := p.Get(models.PlatformInstagram, "")
		require.NoError(t, err)
		assert.True(t, p.Validate(context.Background(), cred))
	}
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(2 * time.Minute)
	cred, err := p.Get(models.PlatformInstagram, "")
	require.NoError(t, err)
	assert.True(t, p.Validate(context.Background(), cred))
	assert.Equal(t, int32(2), hits.Load())
}

func TestValidateEveryRequestWithZeroInterval(t *testing.T) {
	var hits atomic.Int32
	srv := probeServer(t, "good", &hits)

	cfg := baseConfig()
	cfg.Instagram.SessionID = "good"
	p := NewProvider(cfg, WithHTTPClient(srv.Client()), WithProbeURL(models.PlatformInstagram, srv.URL))
	require.NoError(t, p.Load(context.Background()))

	for i := 0; i < 3; i++ {
		cred, err := p.Get(models.PlatformInstagram, "")
		require.NoError(t, err)
		p.Validate(context.Background(), cred)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestMaterializeToken(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tmp", 0o755))
	p := NewProvider(baseConfig(), WithFs(fs))

	cred := &models.SessionCredential{Platform: models.PlatformInstagram, Token: "abc"}
	path, cleanup, err := p.Materialize(cred)
	require.NoError(t, err)

	assert.Regexp(t, `^/tmp/cookies-.*\.txt$`, path)
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "# Netscape HTTP Cookie File\n.instagram.com\tTRUE\t/\tTRUE\t0\tsessionid\tabc\n", string(data))

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	cleanup()
	cleanup()
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMaterializeUniquePaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewProvider(baseConfig(), WithFs(fs))
	cred := &models.SessionCredential{Platform: models.PlatformInstagram, CookieJar: []byte(sampleJar)}

	first, cleanupFirst, err := p.Materialize(cred)
	require.NoError(t, err)
	defer cleanupFirst()
	second, cleanupSecond, err := p.Materialize(cred)
	require.NoError(t, err)
	defer cleanupSecond()

	assert.NotEqual(t, first, second)
	data, err := afero.ReadFile(fs, first)
	require.NoError(t, err)
	assert.Equal(t, sampleJar, string(data))
}

func TestMaterializeNilAndErrors(t *testing.T) {
	p := NewProvider(baseConfig(), WithFs(afero.NewMemMapFs()))

	path, cleanup, err := p.Materialize(nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NotPanics(t, cleanup)

	_, cleanup, err = p.Materialize(&models.SessionCredential{Platform: models.PlatformGeneric, Token: "x"})
	assert.Error(t, err)
	assert.NotPanics(t, cleanup)

	_, _, err = p.Materialize(&models.SessionCredential{Platform: models.PlatformInstagram, Token: "a\nb"})
	assert.Error(t, err)
}

func TestMaterializeReadOnlyFs(t *testing.T) {
	p := NewProvider(baseConfig(), WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))
	_, _, err := p.Materialize(&models.SessionCredential{Platform: models.PlatformInstagram, Token: "abc"})
	assert.Error(t, err)
}

func TestCloseRemovesLeftoverFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := baseConfig()
	cfg.Instagram.SessionID = "abc"
	p := NewProvider(cfg, WithFs(fs))
	require.NoError(t, p.Load(context.Background()))

	path, _, err := p.Materialize(&models.SessionCredential{Platform: models.PlatformInstagram, Token: "abc"})
	require.NoError(t, err)

	require.NoError(t, p.Close())
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, p.Has(models.PlatformInstagram))
}

func TestParseCookieJar(t *testing.T) {
	cookies := parseCookieJar([]byte(sampleJar + "malformed line\n"))
	require.Len(t, cookies, 3)
	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.Equal(t, ".instagram.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int64(1999999999), cookies[0].Expires)

	sent := requestCookies(&models.SessionCredential{Platform: models.PlatformInstagram, CookieJar: []byte(sampleJar)})
	names := make([]string, 0, len(sent))
	for _, c := range sent {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"sessionid", "csrftoken"}, names)
}

func TestStoreErrorsSurface(t *testing.T) {
	cfg := baseConfig()
	cfg.Instagram.CookiesS3Key = "k"
	err := NewProvider(cfg, WithCookieStore(&fakeStore{objects: map[string][]byte{}})).Load(context.Background())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
