// Package config provides centralized configuration management for the service.
// Values come from built-in defaults, an optional YAML file and environment
// variables, in increasing order of precedence. Everything is validated on
// startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upload    UploadConfig    `yaml:"upload"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0" yaml:"host"`

	// Port is the port to listen on. PORT is honoured for platform deploys.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"5001" yaml:"port"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m" yaml:"write_timeout"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" yaml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m" yaml:"request_timeout"`
}

// UploadConfig holds limits for uploaded files and conversions.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600" yaml:"max_file_size"`

	// MaxConcurrent is how many conversions may run at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4" yaml:"max_concurrent"`

	// MaxWaitTime is how long a request waits for a conversion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s" yaml:"max_wait_time"`

	// Timeout bounds a single conversion end to end (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m" yaml:"timeout"`

	// TempDir is where per-conversion workspaces are created (default: OS temp dir)
	TempDir string `env:"UPLOAD_TEMP_DIR" envAlt:"TMPDIR" yaml:"temp_dir"`
}

// PipelineConfig tunes the text pipeline.
type PipelineConfig struct {
	// DefaultEncoding applies when a request declares none: empty for UTF-8,
	// "auto" to detect, or a charset name such as "windows-1252".
	DefaultEncoding string `env:"PIPELINE_DEFAULT_ENCODING" yaml:"default_encoding"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" yaml:"trusted_proxies"`

	// AllowedOrigins lists CORS origins (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*" yaml:"allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" yaml:"format"`
}

// TelemetryConfig controls OpenTelemetry metrics export.
type TelemetryConfig struct {
	Enabled bool `env:"OTEL_ENABLED" default:"false" yaml:"enabled"`

	// Endpoint is the OTLP/HTTP collector, either host:port or a base URL
	// such as http://collector:4318. Insecure only applies to host:port.
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4318" yaml:"endpoint"`

	Insecure       bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" default:"true" yaml:"insecure"`
	ServiceName    string        `env:"OTEL_SERVICE_NAME" default:"tabconvert" yaml:"service_name"`
	ExportInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL" default:"30s" yaml:"export_interval"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
