// Package cli implements the parkctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/parkauth"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/notify"
)

type options struct {
	configPath  string
	apiURL      string
	profilePath string
	logLevel    string
}

// NewRootCommand builds the parkctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "parkctl",
		Short: "Drive a parkauth session from the terminal",
		Long: `parkctl signs in against the parking backend and exercises the session
core: token renewal, navigation guards, notifications and metrics.

Configuration is read from --config (YAML) and PARKAUTH_* environment
variables; flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend base URL (overrides config)")
	flags.StringVar(&opts.profilePath, "profile-path", "", "persist the signed-in profile to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRoutesCommand(opts),
		newShellCommand(opts),
		newMetricsCommand(opts),
	)
	return root
}

// Execute runs parkctl with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *options) load() (parkauth.Config, error) {
	cfg, err := parkauth.LoadConfig(o.configPath)
	if err != nil {
		return parkauth.Config{}, err
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.profilePath != "" {
		cfg.Session.ProfileStorage = parkauth.StorageFile
		cfg.Session.ProfilePath = o.profilePath
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return parkauth.Config{}, err
	}
	return cfg, nil
}

// client builds a Client whose logs go to errOut and whose notifications are
// printed to out as they appear.
func (o *options) client(out *syncWriter, errOut io.Writer) (*parkauth.Client, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errOut,
	})

	return parkauth.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithNotificationListener(func(n notify.Notification) {
			if n.Phase == notify.PhaseVisible {
				out.Printf("[%s] %s\n", n.Severity, n.Text)
			}
		}).
		Build()
}

// syncWriter serializes writes from the command and from notification
// callbacks running on timer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
