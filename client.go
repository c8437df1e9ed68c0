package parkauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/parkauth/api"
	"github.com/MrEthical07/parkauth/events"
	"github.com/MrEthical07/parkauth/gateway"
	"github.com/MrEthical07/parkauth/guard"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/notify"
	"github.com/MrEthical07/parkauth/session"
	"github.com/redis/go-redis/v9"
)

// Client is the assembled session core.
type Client struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
	events  *events.Dispatcher

	notifier *notify.Channel
	gateway  *gateway.Gateway
	auth     *api.Auth
	users    *api.Users
	profile  *api.Profile
	session  *session.Store
	guard    *guard.Guard
	router   *guard.Router

	ownedRedis redis.UniversalClient
	closed     atomic.Bool
	closeOnce  sync.Once
}

func (c *Client) emitter() events.Emitter {
	if c.events == nil {
		return nil
	}
	return c.events
}

// SignIn posts the credentials and installs the returned session.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.User, error) {
	if c.closed.Load() {
		return session.User{}, ErrClientClosed
	}
	res, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.metrics.Inc(metrics.LoginFailure)
		if gateway.StatusCode(err) == http.StatusUnauthorized {
			return session.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return session.User{}, err
	}
	if err := c.session.Login(ctx, res.AccessToken, res.User); err != nil {
		return session.User{}, err
	}
	return res.User, nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (session.User, error) {
	if c.closed.Load() {
		return session.User{}, ErrClientClosed
	}
	return c.auth.Register(ctx, req)
}

// Bootstrap runs the session check. Safe to call repeatedly.
func (c *Client) Bootstrap(ctx context.Context) {
	c.session.CheckSession(ctx)
}

// Refresh renews the access token now.
func (c *Client) Refresh(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.session.Refresh(ctx)
}

// Navigate moves the router to path through the guard.
func (c *Client) Navigate(ctx context.Context, path string) (guard.Result, error) {
	if c.closed.Load() {
		return guard.Result{}, ErrClientClosed
	}
	return c.router.Navigate(ctx, path)
}

// Logout ends the session locally and on the backend. It never fails.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
	c.profile.Reset()
}

// FetchProfile loads the full user profile for display.
func (c *Client) FetchProfile(ctx context.Context) (api.ProfileData, error) {
	return c.profile.Fetch(ctx)
}

// Component accessors.
func (c *Client) Session() *session.Store        { return c.session }
func (c *Client) Notifications() *notify.Channel { return c.notifier }
func (c *Client) Router() *guard.Router          { return c.router }
func (c *Client) Gateway() *gateway.Gateway      { return c.gateway }
func (c *Client) Profile() *api.Profile          { return c.profile }
func (c *Client) Config() Config                 { return c.cfg }

// MetricsSnapshot returns current counters and histograms.
func (c *Client) MetricsSnapshot() metrics.Snapshot {
	return c.metrics.Snapshot()
}

// EventsDropped reports events lost to dispatcher backpressure.
func (c *Client) EventsDropped() uint64 {
	return c.events.Dropped()
}

// Close stops the renewal timer, drains queued events and releases the
// Redis client Build created. The session itself is left intact.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.session != nil {
			c.session.Close()
		}
		err = c.closeOwned()
	})
	return err
}

func (c *Client) closeOwned() error {
	c.events.Close()
	if c.ownedRedis != nil {
		if err := c.ownedRedis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}
