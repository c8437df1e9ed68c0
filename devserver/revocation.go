package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps revocation store I/O failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultRevocationPrefix = "parkauth:revoked"

// Revocations records revoked refresh token ids in Redis. Each entry expires
// with the token it revokes, so the list never needs a sweep.
type Revocations struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRevocations stores revoked token IDs under prefix.
func NewRevocations(rdb redis.UniversalClient, prefix string) *Revocations {
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}
	return &Revocations{redis: rdb, prefix: prefix}
}

func (r *Revocations) key(jti string) string {
	return r.prefix + ":" + jti
}

// Revoke marks jti revoked for ttl. A non-positive ttl is a no-op since the
// token has already expired.
func (r *Revocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("empty token id")
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Set(ctx, r.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked and has not yet expired.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
