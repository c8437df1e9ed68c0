// Command parkauth-loadtest drives many parkauth clients against an
// in-process development backend and reports latency percentiles for
// sign-in, refresh and guarded navigation, plus how many concurrent refresh
// calls were folded into a shared request.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/parkauth"
	"github.com/MrEthical07/parkauth/devserver"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/password"
)

var navigationPaths = []string{
	"/",
	"/user/dashboard",
	"/user/summary",
	"/payment/42",
	"/admin/dashboard",
	"/login",
}

func main() {
	var (
		clients     = flag.Int("clients", 50, "number of signed-in clients")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 2000, "operations per phase (refresh, navigate)")
		burst       = flag.Int("burst", 64, "simultaneous refresh calls on one client")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 || *burst <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, ops and burst must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	baseURL, stop, err := startBackend(ctx, client, *clients)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: %v\n", err)
		os.Exit(1)
	}
	defer stop()

	cfg := parkauth.DefaultConfig()
	cfg.API.BaseURL = baseURL

	fleet := make([]*parkauth.Client, *clients)
	for i := range fleet {
		c, err := parkauth.New().WithConfig(cfg).WithLogger(logging.Discard()).Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build client: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()
		fleet[i] = c
	}

	signIn := runPhase(len(fleet), *concurrency, func(i int, _ *rand.Rand) error {
		_, err := fleet[i].SignIn(ctx, accountEmail(i), accountPassword)
		return err
	})
	refresh := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		return fleet[r.Intn(len(fleet))].Refresh(ctx)
	})
	navigate := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := fleet[r.Intn(len(fleet))].Navigate(ctx, navigationPaths[r.Intn(len(navigationPaths))])
		return err
	})

	target := fleet[0]
	before := target.MetricsSnapshot().Counters[metrics.RefreshShared]
	shared := runPhase(*burst, *burst, func(int, *rand.Rand) error {
		return target.Refresh(ctx)
	})
	joined := target.MetricsSnapshot().Counters[metrics.RefreshShared] - before

	fmt.Println("---- results ----")
	printStats("sign-in", signIn)
	printStats("refresh", refresh)
	printStats("navigate", navigate)
	printStats("refresh-burst", shared)
	fmt.Printf("refresh-burst: %d of %d callers joined an in-flight refresh\n", joined, *burst)
}

const accountPassword = "loadtest-password"

func accountEmail(i int) string {
	return fmt.Sprintf("driver-%d@parking.local", i)
}

func startBackend(ctx context.Context, rdb redis.UniversalClient, accounts int) (string, func(), error) {
	srv, err := devserver.New(devserver.Config{
		Secret:   []byte("parkauth-loadtest-secret"),
		Password: password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	}, rdb)
	if err != nil {
		return "", nil, err
	}

	start := time.Now()
	for i := 0; i < accounts; i++ {
		if _, err := srv.Seed(ctx, devserver.SeedAccount{
			Email:    accountEmail(i),
			Username: fmt.Sprintf("driver-%d", i),
			FullName: fmt.Sprintf("Driver %d", i),
			Password: accountPassword,
		}); err != nil {
			return "", nil, err
		}
	}
	fmt.Printf("seeded %d accounts in %s\n", accounts, time.Since(start).Round(time.Millisecond))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	httpServer := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = httpServer.Serve(ln) }()

	return "http://" + ln.Addr().String(), func() { _ = httpServer.Close() }, nil
}

// runPhase runs op n times across concurrency workers and collects latencies.
func runPhase(n, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
