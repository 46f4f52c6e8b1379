package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/JonMunkholm/tabconvert/internal/config"
	"github.com/JonMunkholm/tabconvert/internal/core"
)

func TestInit_ExportsToEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint func(srvURL string) string
		insecure bool
		wantPath string
	}{
		{"base url", func(u string) string { return u }, false, "/v1/metrics"},
		{"base url with path", func(u string) string { return u + "/otlp/" }, false, "/otlp/v1/metrics"},
		{"host and port", func(u string) string { return strings.TrimPrefix(u, "http://") }, true, "/v1/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make(chan string, 4)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				paths <- r.URL.Path
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()
			t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

			shutdown, err := Init(context.Background(), config.TelemetryConfig{
				Enabled:        true,
				Endpoint:       tt.endpoint(srv.URL),
				Insecure:       tt.insecure,
				ServiceName:    "tabconvert-test",
				ExportInterval: time.Hour,
			})
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}

			m, err := NewMetrics(nil)
			if err != nil {
				t.Fatalf("NewMetrics(nil) error = %v", err)
			}
			m.RecordConversion(context.Background(), core.ConversionRequest{}, &core.ConversionResult{}, time.Millisecond, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				t.Fatalf("shutdown() error = %v", err)
			}

			select {
			case got := <-paths:
				if got != tt.wantPath {
					t.Errorf("export path = %q, want %q", got, tt.wantPath)
				}
			default:
				t.Fatal("no export reached the collector")
			}
		})
	}
}

func TestInit_InvalidEndpointURL(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{
		Enabled:        true,
		Endpoint:       "http://[::1",
		ExportInterval: time.Second,
	})
	if err == nil {
		t.Fatal("Init() expected error for malformed endpoint URL")
	}
}
