package credentials

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/denisAlshanov/mediaresolver/internal/models"
)

const netscapeHeader = "# Netscape HTTP Cookie File"

type sessionCookie struct {
	domain string
	name   string
}

// sessionCookies names the cookie a bare session token is sent as.
var sessionCookies = map[models.Platform]sessionCookie{
	models.PlatformInstagram: {domain: ".instagram.com", name: "sessionid"},
	models.PlatformYouTube:   {domain: ".youtube.com", name: "SID"},
}

type jarCookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           int64
	Name              string
	Value             string
}

// parseCookieJar reads Netscape cookie-jar lines, skipping comments and lines
// that do not have all seven fields.
func parseCookieJar(data []byte) []jarCookie {
	var cookies []jarCookie
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, _ := strconv.ParseInt(fields[4], 10, 64)
		cookies = append(cookies, jarCookie{
			Domain:            fields[0],
			IncludeSubdomains: strings.EqualFold(fields[1], "TRUE"),
			Path:              fields[2],
			Secure:            strings.EqualFold(fields[3], "TRUE"),
			Expires:           expires,
			Name:              fields[5],
			Value:             fields[6],
		})
	}
	return cookies
}

func matchesDomain(cookieDomain, platformDomain string) bool {
	c := strings.TrimPrefix(strings.ToLower(cookieDomain), ".")
	d := strings.TrimPrefix(strings.ToLower(platformDomain), ".")
	return c == d || strings.HasSuffix(c, "."+d)
}

// renderJar returns the jar contents written for cred.
func renderJar(cred *models.SessionCredential) ([]byte, error) {
	if len(cred.CookieJar) > 0 {
		return cred.CookieJar, nil
	}

	cookie, ok := sessionCookies[cred.Platform]
	if !ok {
		return nil, fmt.Errorf("no session cookie known for platform %q", cred.Platform)
	}
	if strings.ContainsAny(cred.Token, "\t\r\n") {
		return nil, fmt.Errorf("session token contains control characters")
	}

	var buf bytes.Buffer
	buf.WriteString(netscapeHeader + "\n")
	fmt.Fprintf(&buf, "%s\tTRUE\t/\tTRUE\t0\t%s\t%s\n", cookie.domain, cookie.name, cred.Token)
	return buf.Bytes(), nil
}

// Materialize writes cred to a private temp file for the extraction tool.
// The returned cleanup removes it and is safe to call more than once. A nil
// credential yields an empty path and a no-op cleanup.
func (p *Provider) Materialize(cred *models.SessionCredential) (string, func(), error) {
	if cred == nil {
		return "", func() {}, nil
	}

	data, err := renderJar(cred)
	if err != nil {
		return "", func() {}, fmt.Errorf("render cookie jar: %w", err)
	}

	f, err := afero.TempFile(p.fs, p.cfg.TempDir, "cookies-*.txt")
	if err != nil {
		return "", func() {}, fmt.Errorf("create cookie file: %w", err)
	}
	path := f.Name()

	p.mu.Lock()
	p.files[path] = struct{}{}
	p.mu.Unlock()

	cleanup := func() {
		p.mu.Lock()
		delete(p.files, path)
		p.mu.Unlock()
		_ = p.fs.Remove(path)
	}

	if err := p.fs.Chmod(path, 0o600); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("restrict cookie file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write cookie file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close cookie file: %w", err)
	}

	return path, cleanup, nil
}
