package parkauth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/parkauth/api"
	"github.com/MrEthical07/parkauth/gateway"
	"github.com/MrEthical07/parkauth/guard"
	"github.com/MrEthical07/parkauth/notify"
	"github.com/MrEthical07/parkauth/session"
	"gopkg.in/yaml.v3"
)

// Environment variables applied on top of the file configuration.
const (
	EnvAPIURL      = "PARKAUTH_API_URL"
	EnvProfilePath = "PARKAUTH_PROFILE_PATH"
	EnvRedisAddr   = "PARKAUTH_REDIS_ADDR"
	EnvLogLevel    = "PARKAUTH_LOG_LEVEL"
)

// Profile storage drivers.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config is the client configuration. Start from DefaultConfig and override
// fields; LoadConfig does that from YAML and the environment.
type Config struct {
	API          APIConfig          `yaml:"api"`
	CSRF         CSRFConfig         `yaml:"csrf"`
	Session      SessionConfig      `yaml:"session"`
	Notification NotificationConfig `yaml:"notification"`
	Routes       RoutesConfig       `yaml:"routes"`
	Events       EventsConfig       `yaml:"events"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend and its auth endpoints.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	LoginPath    string        `yaml:"login_path"`
	RegisterPath string        `yaml:"register_path"`
	RefreshPath  string        `yaml:"refresh_path"`
	LogoutPath   string        `yaml:"logout_path"`
	MePath       string        `yaml:"me_path"`
}

// CSRFConfig names the double-submit cookie and the header echoing it.
type CSRFConfig struct {
	CookieName string `yaml:"cookie_name"`
	HeaderName string `yaml:"header_name"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls renewal timing and profile persistence.
type SessionConfig struct {
	// RenewalBuffer is subtracted from the token expiry to get the renewal
	// deadline.
	RenewalBuffer time.Duration `yaml:"renewal_buffer"`
	// ProfileStorage is "file", "redis" or "memory".
	ProfileStorage  string        `yaml:"profile_storage"`
	ProfilePath     string        `yaml:"profile_path"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPrefix     string        `yaml:"redis_prefix"`
	RedisProfileTTL time.Duration `yaml:"redis_profile_ttl"`
	LogoutMessage   string        `yaml:"logout_message"`
}

// NotificationConfig sets notification display and fade durations.
type NotificationConfig struct {
	DisplayDuration time.Duration `yaml:"display_duration"`
	FadeDuration    time.Duration `yaml:"fade_duration"`
}

// RoutesConfig overrides the navigation table. An empty Table uses the
// built-in routes.
type RoutesConfig struct {
	Table                []guard.Route `yaml:"table"`
	LoginRoute           string        `yaml:"login_route"`
	HomeRoute            string        `yaml:"home_route"`
	LoginRequiredMessage string        `yaml:"login_required_message"`
	NotAuthorizedMessage string        `yaml:"not_authorized_message"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// EventsConfig sizes the async event dispatcher.
type EventsConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig toggles counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// LogConfig configures the slog logger built for the client.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// DefaultConfig returns the configuration matching the parking backend's
// defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:      "http://localhost:5000",
			Timeout:      gateway.DefaultTimeout,
			LoginPath:    api.PathLogin,
			RegisterPath: api.PathRegister,
			RefreshPath:  api.PathRefresh,
			LogoutPath:   api.PathLogout,
			MePath:       api.PathMe,
		},
		CSRF: CSRFConfig{
			CookieName: gateway.DefaultCSRFCookie,
			HeaderName: gateway.DefaultCSRFHeader,
		},
		Session: SessionConfig{
			RenewalBuffer:   session.DefaultRenewalBuffer,
			ProfileStorage:  StorageMemory,
			RedisPrefix:     "parkauth",
			RedisProfileTTL: 7 * 24 * time.Hour,
			LogoutMessage:   session.DefaultLogoutMessage,
		},
		Notification: NotificationConfig{
			DisplayDuration: notify.DefaultDisplayDuration,
			FadeDuration:    notify.DefaultFadeDuration,
		},
		Routes: RoutesConfig{
			LoginRoute:           guard.RouteLogin,
			HomeRoute:            guard.RouteHome,
			LoginRequiredMessage: guard.DefaultLoginRequiredMessage,
			NotAuthorizedMessage: guard.DefaultNotAuthorizedMessage,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads YAML from path over DefaultConfig, applies environment
// overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getenv(EnvAPIURL, c.API.BaseURL)
	c.Log.Level = getenv(EnvLogLevel, c.Log.Level)
	if p := os.Getenv(EnvProfilePath); p != "" {
		c.Session.ProfilePath = p
		if c.Session.ProfileStorage == StorageMemory {
			c.Session.ProfileStorage = StorageFile
		}
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.Session.RedisAddr = addr
		c.Session.ProfileStorage = StorageRedis
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API BaseURL %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}
	for name, p := range map[string]string{
		"LoginPath":    c.API.LoginPath,
		"RegisterPath": c.API.RegisterPath,
		"RefreshPath":  c.API.RefreshPath,
		"LogoutPath":   c.API.LogoutPath,
		"MePath":       c.API.MePath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("API %s %q must start with /", name, p)
		}
	}

	// CSRF
	if strings.TrimSpace(c.CSRF.CookieName) == "" {
		return errors.New("CSRF CookieName must be set")
	}
	if strings.TrimSpace(c.CSRF.HeaderName) == "" {
		return errors.New("CSRF HeaderName must be set")
	}

	// Session
	if c.Session.RenewalBuffer <= 0 {
		return errors.New("Session RenewalBuffer must be > 0")
	}
	switch c.Session.ProfileStorage {
	case StorageMemory:
	case StorageFile:
		if c.Session.ProfilePath == "" {
			return errors.New("Session ProfilePath is required for file storage")
		}
	case StorageRedis:
		if c.Session.RedisPrefix == "" {
			return errors.New("Session RedisPrefix is required for redis storage")
		}
		if c.Session.RedisProfileTTL < 0 {
			return errors.New("Session RedisProfileTTL must be >= 0")
		}
	default:
		return fmt.Errorf("Session ProfileStorage %q must be file, redis or memory", c.Session.ProfileStorage)
	}

	// Notification
	if c.Notification.DisplayDuration <= 0 {
		return errors.New("Notification DisplayDuration must be > 0")
	}
	if c.Notification.FadeDuration < 0 {
		return errors.New("Notification FadeDuration must be >= 0")
	}

	// Routes
	if c.Routes.LoginRoute == "" || c.Routes.HomeRoute == "" {
		return errors.New("Routes LoginRoute and HomeRoute must be set")
	}
	if len(c.Routes.Table) > 0 {
		table, err := guard.NewTable(c.Routes.Table)
		if err != nil {
			return fmt.Errorf("Routes Table: %w", err)
		}
		for _, name := range []string{c.Routes.LoginRoute, c.Routes.HomeRoute} {
			if _, ok := table.Lookup(name); !ok {
				return fmt.Errorf("Routes Table has no route named %q", name)
			}
		}
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}

	// Log
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("Log Format %q must be json or text", c.Log.Format)
	}

	return nil
}

func (c Config) routeTable() []guard.Route {
	if len(c.Routes.Table) > 0 {
		return c.Routes.Table
	}
	return guard.DefaultRoutes()
}

func (c Config) apiPaths() api.Paths {
	return api.Paths{
		Login:    c.API.LoginPath,
		Register: c.API.RegisterPath,
		Refresh:  c.API.RefreshPath,
		Logout:   c.API.LogoutPath,
		Me:       c.API.MePath,
	}
}
