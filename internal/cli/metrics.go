package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelexport "github.com/MrEthical07/parkauth/metrics/export/otel"
	"github.com/MrEthical07/parkauth/metrics/export/prometheus"
)

const (
	formatPrometheus = "prometheus"
	formatOTel       = "otel"
)

func newMetricsCommand(opts *options) *cobra.Command {
	var (
		email    string
		password string
		visits   []string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Run a scripted session and print its metrics",
		Long: `Run the session check, optionally sign in and visit paths, then print the
client metrics in the Prometheus text exposition format, or as the values an
OpenTelemetry reader collects (--format otel).

Examples:
  parkctl metrics
  parkctl metrics --email driver@parking.local --password driver-password \
    --visit /user/dashboard --visit /admin/dashboard
  parkctl metrics --format otel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatPrometheus && format != formatOTel {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatPrometheus, formatOTel)
			}
			out := newSyncWriter(cmd.ErrOrStderr())
			client, err := opts.client(out, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			client.Bootstrap(ctx)
			if email != "" {
				if _, err := client.SignIn(ctx, email, password); err != nil {
					return fmt.Errorf("sign in: %w", err)
				}
			}
			for _, path := range visits {
				if _, err := client.Navigate(ctx, strings.TrimSpace(path)); err != nil {
					return fmt.Errorf("visit %s: %w", path, err)
				}
			}

			if format == formatOTel {
				return writeOTel(ctx, cmd.OutOrStdout(), client)
			}
			fmt.Fprint(cmd.OutOrStdout(), prometheus.NewExporter(client).Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "sign in with this email")
	cmd.Flags().StringVar(&password, "password", "", "password for --email")
	cmd.Flags().StringArrayVar(&visits, "visit", nil, "path to navigate to; repeatable")
	cmd.Flags().StringVar(&format, "format", formatPrometheus, "output format: prometheus or otel")
	return cmd
}

// writeOTel collects source through an OpenTelemetry manual reader and prints
// one "name value" line per data point, sorted by name.
func writeOTel(ctx context.Context, w io.Writer, source otelexport.Source) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

	exp, err := otelexport.NewExporter(provider.Meter("parkctl"), source)
	if err != nil {
		return err
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s %d", m.Name, dp.Value))
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s %d", m.Name, dp.Value))
				}
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
