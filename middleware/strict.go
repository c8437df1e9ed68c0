package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/jwt"
)

// Cookie and header names used by RequireRefresh when RefreshOptions leaves
// them empty.
const (
	DefaultRefreshCookie = "refresh_token_cookie"
	DefaultCSRFHeader    = "X-CSRF-TOKEN"
)

// RefreshVerifier verifies refresh tokens. *jwt.Manager satisfies it.
type RefreshVerifier interface {
	ParseRefresh(token string) (*jwt.Claims, error)
}

// RevocationChecker reports whether a refresh token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RefreshOptions configures RequireRefresh. Empty names take the defaults.
type RefreshOptions struct {
	CookieName  string
	CSRFHeader  string
	Revocations RevocationChecker
	Logger      *slog.Logger
}

// RequireRefresh guards the refresh and logout endpoints. The refresh token
// is read from its cookie, the CSRF header must equal the token's csrf claim,
// and the token id must not be revoked. A failing revocation lookup rejects
// the request.
func RequireRefresh(tokens RefreshVerifier, opts RefreshOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultRefreshCookie
	}
	if opts.CSRFHeader == "" {
		opts.CSRFHeader = DefaultCSRFHeader
	}
	logger := logging.OrDiscard(opts.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(opts.CookieName)
			if err != nil || cookie.Value == "" || tokens == nil {
				unauthorized(w, fmt.Sprintf("Missing cookie %q", opts.CookieName))
				return
			}

			claims, err := tokens.ParseRefresh(cookie.Value)
			if err != nil {
				unauthorized(w, tokenErrorMessage(err))
				return
			}

			header := r.Header.Get(opts.CSRFHeader)
			if header == "" {
				unauthorized(w, "Missing CSRF token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(header), []byte(claims.CSRF)) != 1 {
				unauthorized(w, "CSRF double submit tokens do not match")
				return
			}

			if opts.Revocations != nil {
				revoked, err := opts.Revocations.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("revocation lookup failed", "jti", claims.ID, "error", err)
					unauthorized(w, "Token has been revoked")
					return
				}
				if revoked {
					unauthorized(w, "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
