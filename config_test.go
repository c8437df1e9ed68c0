package parkauth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/parkauth/guard"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvProfilePath, EnvRedisAddr, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parkauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Session.RenewalBuffer)
	assert.Equal(t, "csrf_refresh_token", cfg.CSRF.CookieName)
	assert.Equal(t, "X-CSRF-TOKEN", cfg.CSRF.HeaderName)
	assert.Equal(t, 5*time.Second, cfg.Notification.DisplayDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.Notification.FadeDuration)
	assert.Equal(t, StorageMemory, cfg.Session.ProfileStorage)
	assert.Equal(t, guard.RouteLogin, cfg.Routes.LoginRoute)
}

func TestLoadConfigYAML(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
api:
  base_url: https://parking.example.com
  timeout: 5s
session:
  renewal_buffer: 30s
  profile_storage: file
  profile_path: /tmp/parkauth/profile.json
notification:
  display_duration: 3s
routes:
  table:
    - {name: Home, path: /}
    - {name: Login, path: /login, guest_only: true}
    - {name: Lots, path: "/lots/:lotId", requires_auth: true}
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://parking.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/auth/login", cfg.API.LoginPath, "unset fields keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Session.RenewalBuffer)
	assert.Equal(t, StorageFile, cfg.Session.ProfileStorage)
	assert.Equal(t, 3*time.Second, cfg.Notification.DisplayDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.Notification.FadeDuration)
	require.Len(t, cfg.Routes.Table, 3)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(EnvAPIURL, "http://127.0.0.1:9000")
	t.Setenv(EnvProfilePath, "/var/lib/parkauth/user.json")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.API.BaseURL)
	assert.Equal(t, StorageFile, cfg.Session.ProfileStorage)
	assert.Equal(t, "/var/lib/parkauth/user.json", cfg.Session.ProfilePath)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv(EnvRedisAddr, "127.0.0.1:6379")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.Session.ProfileStorage)
	assert.Equal(t, "127.0.0.1:6379", cfg.Session.RedisAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "api: [not, a, map]"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "session:\n  renewal_buffer: 0s\n"))
	assert.ErrorContains(t, err, "RenewalBuffer")
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "BaseURL"},
		{"non http scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "BaseURL"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "Timeout"},
		{"path without slash", func(c *Config) { c.API.RefreshPath = "auth/refresh" }, "RefreshPath"},
		{"empty csrf header", func(c *Config) { c.CSRF.HeaderName = " " }, "HeaderName"},
		{"file storage without path", func(c *Config) { c.Session.ProfileStorage = StorageFile }, "ProfilePath"},
		{"unknown storage", func(c *Config) { c.Session.ProfileStorage = "s3" }, "ProfileStorage"},
		{"zero display", func(c *Config) { c.Notification.DisplayDuration = 0 }, "DisplayDuration"},
		{"table without login", func(c *Config) {
			c.Routes.Table = []guard.Route{{Name: guard.RouteHome, Path: "/"}}
		}, "Login"},
		{"events without buffer", func(c *Config) {
			c.Events.Enabled = true
			c.Events.BufferSize = 0
		}, "BufferSize"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
