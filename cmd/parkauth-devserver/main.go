// Command parkauth-devserver runs the development auth backend.
//
// It listens on :5000 by default and keeps revoked refresh tokens in Redis.
// Without -redis-addr or REDIS_ADDR an in-process miniredis is used, so
// nothing external is required.
//
// Run:
//
//	go run ./cmd/parkauth-devserver -seed
//
// Then:
//
//	curl -i -c jar.txt -X POST localhost:5000/auth/login \
//	  -H 'Content-Type: application/json' \
//	  -d '{"email":"admin@parking.local","password":"admin-password"}'
//
//	curl -i -b jar.txt -c jar.txt -X POST localhost:5000/auth/refresh \
//	  -H "X-CSRF-TOKEN: $(awk '/csrf_refresh_token/ {print $7}' jar.txt)"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/parkauth/devserver"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/internal/rate"
	"github.com/MrEthical07/parkauth/session"
)

func main() {
	var (
		addr        = flag.String("addr", getenv("PARKAUTH_DEV_ADDR", ":5000"), "listen address")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		secret      = flag.String("secret", getenv("JWT_SECRET_KEY", ""), "HS256 signing secret (JWT_SECRET_KEY)")
		accessTTL   = flag.Duration("access-ttl", devserver.DefaultAccessTTL, "access token lifetime")
		refreshTTL  = flag.Duration("refresh-ttl", devserver.DefaultRefreshTTL, "refresh token lifetime")
		maxFailures = flag.Int("max-login-failures", 5, "failed logins per account before throttling; 0 disables")
		seed        = flag.Bool("seed", false, "create demo admin and user accounts")
		logLevel    = flag.String("log-level", getenv("PARKAUTH_LOG_LEVEL", "info"), "log level")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Level: *logLevel, Format: "text"})

	if *secret == "" {
		*secret = "parkauth-dev-secret-do-not-deploy"
		logger.Warn("no signing secret configured, using the built-in development secret")
	}

	client, cleanup, err := connectRedis(*redisAddr, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	srv, err := devserver.New(devserver.Config{
		Secret:     []byte(*secret),
		AccessTTL:  *accessTTL,
		RefreshTTL: *refreshTTL,
		Throttle: rate.Config{
			MaxLoginFailures: *maxFailures,
			LoginWindow:      15 * time.Minute,
			ThrottleByIP:     true,
		},
		Logger: logger,
	}, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devserver: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		if err := seedAccounts(ctx, srv, logger); err != nil {
			fmt.Fprintf(os.Stderr, "seed: %v\n", err)
			os.Exit(1)
		}
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
}

func connectRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Info("using miniredis", "addr", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	logger.Info("using redis", "addr", addr)
	return client, func() { _ = client.Close() }, nil
}

func seedAccounts(ctx context.Context, srv *devserver.Server, logger *slog.Logger) error {
	accounts := []devserver.SeedAccount{
		{Email: "admin@parking.local", Username: "admin", FullName: "Lot Administrator", Password: "admin-password", Role: session.RoleAdmin},
		{Email: "driver@parking.local", Username: "driver", FullName: "Demo Driver", Password: "driver-password"},
	}
	for _, acct := range accounts {
		user, err := srv.Seed(ctx, acct)
		if err != nil {
			return fmt.Errorf("%s: %w", acct.Email, err)
		}
		logger.Info("seeded account", "email", user.Email, "role", user.Role)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
