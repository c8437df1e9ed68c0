package middleware

import (
	"net/http"

	"github.com/MrEthical07/parkauth/jwt"
)

// AccessVerifier verifies access tokens. *jwt.Manager satisfies it.
type AccessVerifier interface {
	ParseAccess(token string) (*jwt.Claims, error)
}

// RequireAccess rejects requests without a valid bearer access token.
// Verification is signature and expiry only.
func RequireAccess(tokens AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				unauthorized(w, "Missing Authorization Header")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Missing Authorization Header")
				return
			}

			claims, err := tokens.ParseAccess(token)
			if err != nil {
				unauthorized(w, tokenErrorMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
