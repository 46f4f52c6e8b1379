// Package telemetry wires OpenTelemetry metrics for conversions.
//
// Init installs a global meter provider that pushes to an OTLP/HTTP
// collector. When telemetry is disabled the global provider stays the
// OpenTelemetry no-op, so instruments can be created unconditionally.
package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/JonMunkholm/tabconvert/internal/config"
)

const scopeName = "github.com/JonMunkholm/tabconvert/internal/telemetry"

const metricsPath = "/v1/metrics"

// Shutdown flushes and stops the exporters started by Init.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init sets up the global meter provider described by cfg and returns its
// shutdown function. It must be called on exit to flush pending metrics.
func Init(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	opts, err := exporterOptions(cfg)
	if err != nil {
		return nil, err
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(cfg.ExportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// exporterOptions accepts the endpoint either as a bare host:port or as a
// base URL, the form the standard OTEL_EXPORTER_OTLP_ENDPOINT variable takes.
// Metrics for a base URL go to its path joined with /v1/metrics, and its
// scheme decides transport security.
func exporterOptions(cfg config.TelemetryConfig) ([]otlpmetrichttp.Option, error) {
	if !strings.Contains(cfg.Endpoint, "://") {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return opts, nil
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry endpoint: %w", err)
	}
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(u.Host),
		otlpmetrichttp.WithURLPath(path.Join("/", u.Path, metricsPath)),
	}
	if u.Scheme != "https" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts, nil
}
