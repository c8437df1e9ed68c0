package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/parkauth/internal/logging"
)

const DefaultTimeout = 15 * time.Second

// Config wires a Gateway. BaseURL is required.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
	CSRFCookie  string
	CSRFHeader  string

	Tokens TokenSource
	// Cookies defaults to a reader over Jar.
	Cookies CookieReader
	// Jar defaults to a fresh in-memory jar.
	Jar       http.CookieJar
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Gateway issues JSON requests against the backend.
type Gateway struct {
	baseURL string
	client  *http.Client
	jar     http.CookieJar
	cookies CookieReader
	log     *slog.Logger
}

// New validates cfg and builds the Gateway.
func New(cfg Config) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url %q must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	jar := cfg.Jar
	if jar == nil {
		jar, err = NewCookieJar()
		if err != nil {
			return nil, fmt.Errorf("gateway: cookie jar: %w", err)
		}
	}
	cookies := cfg.Cookies
	if cookies == nil {
		cookies, err = NewJarCookieReader(jar, base)
		if err != nil {
			return nil, err
		}
	}

	return &Gateway{
		baseURL: base,
		jar:     jar,
		cookies: cookies,
		log:     logging.OrDiscard(cfg.Logger).With("component", "gateway"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
			Transport: &Transport{
				Base:        cfg.Transport,
				Tokens:      cfg.Tokens,
				Cookies:     cookies,
				BasePath:    u.Path,
				RefreshPath: cfg.RefreshPath,
				CSRFCookie:  cfg.CSRFCookie,
				CSRFHeader:  cfg.CSRFHeader,
			},
		},
	}, nil
}

// HTTPClient returns the underlying client with header injection installed.
func (g *Gateway) HTTPClient() *http.Client { return g.client }

// Jar returns the cookie jar carrying the refresh and anti-CSRF cookies.
func (g *Gateway) Jar() http.CookieJar { return g.jar }

// Cookies returns the reader used for the anti-CSRF cookie.
func (g *Gateway) Cookies() CookieReader { return g.cookies }

// BaseURL returns the normalised API base URL without a trailing slash.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Get issues a GET and decodes the JSON response into out.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a JSON request to path and decodes a 2xx JSON response into out
// when out is non-nil. Non-2xx responses return *APIError. Errors building
// the request are returned as is.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Debug("request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	g.log.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
