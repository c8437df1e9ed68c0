package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token's claims cannot be decoded or
// carry no expiry.
var ErrMalformedToken = errors.New("malformed token")

// Decode reads the claims of tokenStr without verifying its signature.
func Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of tokenStr.
func ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := Decode(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	return claims.ExpiresAt.Time, nil
}
