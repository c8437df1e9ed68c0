package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/parkauth/jwt"
	gojwt "github.com/golang-jwt/jwt/v5"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims a guard stored on the request.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.Claims)
	return claims, ok
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// tokenErrorMessage maps verification failures to the client-facing text.
func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return "Signature verification failed"
	case errors.Is(err, gojwt.ErrTokenMalformed):
		return "Not enough segments"
	default:
		return "Invalid token"
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
