package gateway

import (
	"net/http"
	"strings"
)

const (
	DefaultRefreshPath = "/auth/refresh"
	DefaultCSRFCookie  = "csrf_refresh_token"
	DefaultCSRFHeader  = "X-CSRF-TOKEN"
)

// TokenSource supplies the current in-memory access token, or "".
type TokenSource interface {
	AccessToken() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

// Transport injects the bearer and anti-CSRF headers.
type Transport struct {
	Base        http.RoundTripper
	Tokens      TokenSource
	Cookies     CookieReader
	// BasePath is the path prefix of the API base URL, e.g. "/v1".
	BasePath    string
	RefreshPath string
	CSRFCookie  string
	CSRFHeader  string
}

// RoundTrip clones req, adds the headers and delegates to Base.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if t.Tokens != nil && !t.isRefresh(out.URL.Path) {
		if tok := t.Tokens.AccessToken(); tok != "" {
			out.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if t.Cookies != nil {
		if v, ok := t.Cookies.Cookie(t.csrfCookie()); ok && v != "" {
			out.Header.Set(t.csrfHeader(), v)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

// isRefresh reports whether path is exactly the refresh endpoint under
// BasePath. Trailing slashes are ignored on both sides.
func (t *Transport) isRefresh(path string) bool {
	refresh := strings.TrimSuffix(t.RefreshPath, "/")
	if refresh == "" {
		refresh = DefaultRefreshPath
	}
	if !strings.HasPrefix(refresh, "/") {
		refresh = "/" + refresh
	}
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(t.BasePath, "/")+refresh
}

func (t *Transport) csrfCookie() string {
	if t.CSRFCookie == "" {
		return DefaultCSRFCookie
	}
	return t.CSRFCookie
}

func (t *Transport) csrfHeader() string {
	if t.CSRFHeader == "" {
		return DefaultCSRFHeader
	}
	return t.CSRFHeader
}
