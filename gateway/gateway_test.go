package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Path          string
	Authorization string
	CSRF          string
	ContentType   string
	Body          map[string]any
}

type recorder struct {
	mu   sync.Mutex
	seen []seenRequest
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	rec := seenRequest{
		Path:          req.URL.Path,
		Authorization: req.Header.Get("Authorization"),
		CSRF:          req.Header.Get("X-CSRF-TOKEN"),
		ContentType:   req.Header.Get("Content-Type"),
	}
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&rec.Body)
	}
	r.mu.Lock()
	r.seen = append(r.seen, rec)
	r.mu.Unlock()

	switch req.URL.Path {
	case "/auth/login":
		http.SetCookie(w, &http.Cookie{Name: "refresh_token_cookie", Value: "r1", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "csrf_refresh_token", Value: "csrf-1", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "a1"})
	case "/users/me":
		_ = json.NewEncoder(w).Encode(map[string]string{"username": "driver"})
	case "/auth/refresh":
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "a2"})
	case "/denied":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"Token has expired"}`))
	case "/broken":
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (r *recorder) last() seenRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

func newTestGateway(t *testing.T, token *string) (*Gateway, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(srv.Close)

	gw, err := New(Config{
		BaseURL: srv.URL,
		Tokens:  TokenFunc(func() string { return *token }),
	})
	require.NoError(t, err)
	return gw, rec
}

func TestBearerAttachedOnlyWhenTokenHeld(t *testing.T) {
	token := ""
	gw, rec := newTestGateway(t, &token)
	ctx := context.Background()

	require.NoError(t, gw.Get(ctx, "/users/me", nil))
	assert.Empty(t, rec.last().Authorization)

	token = "a1"
	var me map[string]string
	require.NoError(t, gw.Get(ctx, "/users/me", &me))
	assert.Equal(t, "Bearer a1", rec.last().Authorization)
	assert.Equal(t, "driver", me["username"])
	assert.Equal(t, "application/json", rec.last().ContentType)
}

func TestRefreshNeverCarriesBearer(t *testing.T) {
	token := "stale"
	gw, rec := newTestGateway(t, &token)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, gw.Post(context.Background(), "/auth/refresh", nil, &out))
	assert.Empty(t, rec.last().Authorization)
	assert.Equal(t, "a2", out.AccessToken)

	require.NoError(t, gw.Post(context.Background(), "/auth/refresh/", nil, nil))
	assert.Empty(t, rec.last().Authorization)
}

func TestCSRFHeaderEchoesCookieFromJar(t *testing.T) {
	token := ""
	gw, rec := newTestGateway(t, &token)
	ctx := context.Background()

	require.NoError(t, gw.Post(ctx, "/auth/logout", nil, nil))
	assert.Empty(t, rec.last().CSRF, "no cookie yet")

	require.NoError(t, gw.Post(ctx, "/auth/login", map[string]string{"email": "d@example.com"}, nil))
	assert.Equal(t, "d@example.com", rec.last().Body["email"])

	v, ok := gw.Cookies().Cookie("csrf_refresh_token")
	require.True(t, ok)
	assert.Equal(t, "csrf-1", v)

	require.NoError(t, gw.Post(ctx, "/auth/refresh", nil, nil))
	assert.Equal(t, "csrf-1", rec.last().CSRF)

	require.NoError(t, gw.Get(ctx, "/users/me", nil))
	assert.Equal(t, "csrf-1", rec.last().CSRF, "harmless on other endpoints")
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	token := ""
	gw, _ := newTestGateway(t, &token)

	err := gw.Get(context.Background(), "/denied", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token has expired", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	err = gw.Get(context.Background(), "/broken", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestRequestConstructionErrorPropagatesUnchanged(t *testing.T) {
	token := "a1"
	gw, rec := newTestGateway(t, &token)

	err := gw.Get(context.Background(), "/users/\nme", nil)
	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr), "got %T: %v", err, err)
	assert.Zero(t, StatusCode(err))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.seen)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost:5000"})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "ftp://example.com"})
	require.Error(t, err)
}

func TestTransportWithStaticCookies(t *testing.T) {
	var got http.Header
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		got = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: req}, nil
	})
	cookies := NewStaticCookies(map[string]string{"xsrf": "v1"})
	tr := &Transport{
		Base:        base,
		Tokens:      TokenFunc(func() string { return "tok" }),
		Cookies:     cookies,
		BasePath:    "/v1",
		RefreshPath: "/session/renew",
		CSRFCookie:  "xsrf",
		CSRFHeader:  "X-XSRF",
	}

	req := httptest.NewRequest(http.MethodPost, "http://api.example.com/v1/session/renew", nil)
	_, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
	assert.Equal(t, "v1", got.Get("X-XSRF"))
	assert.Empty(t, req.Header.Get("X-XSRF"), "caller's request is not mutated")

	req = httptest.NewRequest(http.MethodGet, "http://api.example.com/v1/me", nil)
	_, err = tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
}

func TestRefreshMatchHonoursBasePathAndTrailingSlash(t *testing.T) {
	rec := &recorder{}
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", http.HandlerFunc(rec.handler)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gw, err := New(Config{
		BaseURL:     srv.URL + "/api/",
		RefreshPath: "/auth/refresh/",
		Tokens:      TokenFunc(func() string { return "stale" }),
	})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		path   string
		bearer bool
	}{
		{path: "/auth/refresh/", bearer: false},
		{path: "/auth/refresh", bearer: false},
		{path: "/admin/auth/refresh", bearer: true},
		{path: "/auth/refresh/extra", bearer: true},
		{path: "/users/me", bearer: true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			require.NoError(t, gw.Post(ctx, tc.path, nil, nil))
			if tc.bearer {
				assert.Equal(t, "Bearer stale", rec.last().Authorization)
			} else {
				assert.Empty(t, rec.last().Authorization)
			}
		})
	}
}

func TestDefaultRefreshPathIsExactMatch(t *testing.T) {
	token := "a1"
	gw, rec := newTestGateway(t, &token)

	require.NoError(t, gw.Post(context.Background(), "/admin/auth/refresh", nil, nil))
	assert.Equal(t, "Bearer a1", rec.last().Authorization)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
