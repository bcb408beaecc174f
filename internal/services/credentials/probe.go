package credentials

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/denisAlshanov/mediaresolver/internal/models"
)

const (
	// A public profile that any logged-in session can read.
	instagramProbeURL = "https://www.instagram.com/api/v1/users/web_profile_info/?username=instagram"
	instagramAppID    = "936619743392459"
	probeUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

func (p *Provider) probe(ctx context.Context, probeURL string, cred *models.SessionCredential) error {
	if p.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", probeUserAgent)
	if cred.Platform == models.PlatformInstagram {
		req.Header.Set("X-IG-App-ID", instagramAppID)
	}
	for _, c := range requestCookies(cred) {
		req.AddCookie(c)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

// requestCookies turns a credential into the cookies sent with the probe.
func requestCookies(cred *models.SessionCredential) []*http.Cookie {
	if len(cred.CookieJar) > 0 {
		domain := sessionCookies[cred.Platform].domain
		var out []*http.Cookie
		for _, c := range parseCookieJar(cred.CookieJar) {
			if domain == "" || matchesDomain(c.Domain, domain) {
				out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
			}
		}
		return out
	}
	if cookie, ok := sessionCookies[cred.Platform]; ok && cred.Token != "" {
		return []*http.Cookie{{Name: cookie.name, Value: cred.Token}}
	}
	return nil
}
