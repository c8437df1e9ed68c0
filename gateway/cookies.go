package gateway

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// CookieReader looks up a readable cookie by name.
type CookieReader interface {
	Cookie(name string) (string, bool)
}

// NewCookieJar returns an in-memory jar using the public suffix list, so
// cookies are scoped to registrable domains the way a browser scopes them.
func NewCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// JarCookieReader reads cookies the jar would send to baseURL.
type JarCookieReader struct {
	jar  http.CookieJar
	base *url.URL
}

// NewJarCookieReader reads cookies that jar holds for baseURL.
func NewJarCookieReader(jar http.CookieJar, baseURL string) (*JarCookieReader, error) {
	if jar == nil {
		return nil, fmt.Errorf("gateway: nil cookie jar")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &JarCookieReader{jar: jar, base: u}, nil
}

func (r *JarCookieReader) Cookie(name string) (string, bool) {
	for _, c := range r.jar.Cookies(r.base) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// StaticCookies is a fixed CookieReader, mostly for tests.
type StaticCookies struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStaticCookies returns a CookieReader over a fixed set of values.
func NewStaticCookies(values map[string]string) *StaticCookies {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &StaticCookies{values: cp}
}

func (s *StaticCookies) Cookie(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set stores or replaces a cookie value.
func (s *StaticCookies) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}
