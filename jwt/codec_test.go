package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestExpiresAtReadsExpWithoutKey(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newHSManager(t).WithClock(func() time.Time { return base })

	tok, err := m.CreateAccessWithTTL("u", "user", 5*time.Minute)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	exp, err := ExpiresAt(tok)
	if err != nil {
		t.Fatalf("ExpiresAt: %v", err)
	}
	if !exp.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("exp = %v, want %v", exp, base.Add(5*time.Minute))
	}
}

func TestExpiresAtAcceptsExpiredTokens(t *testing.T) {
	tok, err := newHSManager(t).CreateAccessWithTTL("u", "user", -time.Hour)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := ExpiresAt(tok); err != nil {
		t.Fatalf("expired token must still decode: %v", err)
	}
}

func TestExpiresAtMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-token",
		"a.b.c",
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1In0.sig", // no exp claim
	}
	for _, tok := range cases {
		if _, err := ExpiresAt(tok); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("ExpiresAt(%q) err = %v, want ErrMalformedToken", tok, err)
		}
	}
}

func TestDecodeExposesRole(t *testing.T) {
	tok, err := newHSManager(t).CreateAccess("user-7", "admin")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Role != "admin" || claims.Subject != "user-7" || claims.Type != TypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
