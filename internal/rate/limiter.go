package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "parkauth:rate"

// Config holds the throttle budgets. A zero MaxLoginFailures or
// MaxRefreshes disables that throttle.
type Config struct {
	Prefix           string
	MaxLoginFailures int
	LoginWindow      time.Duration
	ThrottleByIP     bool
	MaxRefreshes     int
	RefreshWindow    time.Duration
}

// Limiter enforces the budgets with Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New builds a limiter over redisClient. Zero limits disable a check.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = 15 * time.Minute
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = time.Minute
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckLogin returns ErrRateLimited when the account or the address has used
// up its failure budget.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}
	for _, key := range l.loginKeys(email, ip) {
		if err := l.checkCounter(ctx, key, l.config.MaxLoginFailures); err != nil {
			return err
		}
	}
	return nil
}

// RecordLoginFailure counts one failed attempt and reports ErrRateLimited
// once the budget is exceeded.
func (l *Limiter) RecordLoginFailure(ctx context.Context, email, ip string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}
	var limited bool
	for _, key := range l.loginKeys(email, ip) {
		count, err := l.incrementWithTTL(ctx, key, l.config.LoginWindow)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginFailures) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the per-account counter after a successful login. The
// address counter is left to expire.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}
	if err := l.redis.Del(ctx, l.loginKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginFailures returns the current failure count for an account. Missing
// keys read as zero.
func (l *Limiter) LoginFailures(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// AllowRefresh counts a refresh call for subject and reports ErrRateLimited
// past the budget.
func (l *Limiter) AllowRefresh(ctx context.Context, subject string) error {
	if l.config.MaxRefreshes <= 0 {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, l.config.Prefix+":refresh:"+subject, l.config.RefreshWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshes) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) loginKey(email string) string {
	return l.config.Prefix + ":login:" + strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) loginKeys(email, ip string) []string {
	keys := []string{l.loginKey(email)}
	if l.config.ThrottleByIP && ip != "" {
		keys = append(keys, l.config.Prefix+":ip:"+ip)
	}
	return keys
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is set only on the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
