package parkauth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/parkauth/api"
	"github.com/MrEthical07/parkauth/events"
	"github.com/MrEthical07/parkauth/gateway"
	"github.com/MrEthical07/parkauth/guard"
	"github.com/MrEthical07/parkauth/internal/clock"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/notify"
	"github.com/MrEthical07/parkauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Client. A Builder is single use.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	jar       http.CookieJar
	transport http.RoundTripper
	profiles  session.ProfileStore
	eventSink events.Sink
	logger    *slog.Logger
	onNotify  func(notify.Notification)
	clock     clock.Clock

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration used by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client used for redis profile storage. Without it
// Build dials Session.RedisAddr.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCookieJar shares a jar with other HTTP clients.
func (b *Builder) WithCookieJar(jar http.CookieJar) *Builder {
	b.jar = jar
	return b
}

// WithTransport replaces the base HTTP transport under the header injector.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithProfileStore overrides the storage selected by Session.ProfileStorage.
func (b *Builder) WithProfileStore(store session.ProfileStore) *Builder {
	b.profiles = store
	return b
}

// WithEventSink enables session events and sends them to sink, whatever
// Events.Enabled says.
func (b *Builder) WithEventSink(sink events.Sink) *Builder {
	b.eventSink = sink
	return b
}

// WithLogger sets the logger shared by every component.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithNotificationListener is called after every notification change.
func (b *Builder) WithNotificationListener(fn func(notify.Notification)) *Builder {
	b.onNotify = fn
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := b.logger
	if logger == nil {
		logger = logging.New(logging.Config{
			Level:     cfg.Log.Level,
			Format:    cfg.Log.Format,
			AddSource: cfg.Log.AddSource,
		})
	}
	clk := clock.OrReal(b.clock)

	c := &Client{
		log:     logger,
		metrics: metrics.New(metrics.Config(cfg.Metrics)),
	}

	if cfg.Events.Enabled || b.eventSink != nil {
		cfg.Events.Enabled = true
		sink := b.eventSink
		if sink == nil {
			sink = events.NewSlogSink(logger.With("component", "events"))
		}
		c.events = events.NewDispatcher(events.Config(cfg.Events), sink)
	}

	profiles, err := b.profileStore(c)
	if err != nil {
		c.events.Close()
		return nil, err
	}

	c.notifier = notify.New(notify.Config{
		DisplayDuration: cfg.Notification.DisplayDuration,
		FadeDuration:    cfg.Notification.FadeDuration,
		Clock:           clk,
		Logger:          logger,
		OnChange:        b.onNotify,
		OnShow:          func(notify.Notification) { c.metrics.Inc(metrics.NotificationShown) },
	})

	gw, err := gateway.New(gateway.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		RefreshPath: cfg.API.RefreshPath,
		CSRFCookie:  cfg.CSRF.CookieName,
		CSRFHeader:  cfg.CSRF.HeaderName,
		Tokens:      gateway.TokenFunc(func() string { return c.session.AccessToken() }),
		Jar:         b.jar,
		Transport:   b.transport,
		Logger:      logger,
	})
	if err != nil {
		_ = c.closeOwned()
		return nil, err
	}
	c.gateway = gw

	paths := cfg.apiPaths()
	c.auth = api.NewAuth(gw, paths)
	c.users = api.NewUsers(gw, paths)
	c.profile = api.NewProfile(c.users, c.metrics, logger)

	c.session = session.New(session.Config{
		RenewalBuffer: cfg.Session.RenewalBuffer,
		LogoutMessage: cfg.Session.LogoutMessage,
		Backend:       c.auth,
		Profiles:      profiles,
		Notifier:      c.notifier,
		Events:        c.emitter(),
		Metrics:       c.metrics,
		Clock:         clk,
		Logger:        logger,
	})

	table, err := guard.NewTable(cfg.routeTable())
	if err != nil {
		_ = c.closeOwned()
		return nil, err
	}
	c.guard = guard.New(guard.Config{
		LoginRoute:           cfg.Routes.LoginRoute,
		HomeRoute:            cfg.Routes.HomeRoute,
		LoginRequiredMessage: cfg.Routes.LoginRequiredMessage,
		NotAuthorizedMessage: cfg.Routes.NotAuthorizedMessage,
		Session:              c.session,
		Notifier:             c.notifier,
		Events:               c.emitter(),
		Metrics:              c.metrics,
		Logger:               logger,
	})
	c.router = guard.NewRouter(table, c.guard, logger)
	c.cfg = cfg

	b.built = true
	return c, nil
}

func (b *Builder) profileStore(c *Client) (session.ProfileStore, error) {
	if b.profiles != nil {
		return b.profiles, nil
	}
	s := b.config.Session
	switch s.ProfileStorage {
	case StorageFile:
		return session.NewFileProfileStore(s.ProfilePath), nil
	case StorageRedis:
		rdb := b.redis
		if rdb == nil {
			if s.RedisAddr == "" {
				return nil, fmt.Errorf("redis profile storage needs WithRedis or Session.RedisAddr")
			}
			rdb = redis.NewClient(&redis.Options{Addr: s.RedisAddr})
			c.ownedRedis = rdb
		}
		return session.NewRedisProfileStore(rdb, s.RedisPrefix, s.RedisProfileTTL), nil
	default:
		return session.NewMemoryProfileStore(), nil
	}
}
