package config

import "time"

// Config is the root configuration structure for Meridian.
// It contains all configuration sections for the gateway server, virtual
// endpoints, dead-provider recovery, dispatch history, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Auth contains gateway authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Endpoints is the list of virtual endpoints exposed by the gateway.
	// Each endpoint is backed by an ordered pool of upstream providers.
	Endpoints []EndpointConfig `yaml:"endpoints"`

	// Recovery contains configuration for the dead-provider recovery prober.
	Recovery RecoveryConfig `yaml:"recovery"`

	// History contains configuration for dispatch history storage.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the gateway HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streamed relays hold the response open for their full
	// duration, so this should comfortably exceed provider timeouts.
	// Default: 300s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins (not recommended for production).
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials (cookies, auth headers)
	// are allowed in CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// AuthConfig contains gateway authentication configuration.
type AuthConfig struct {
	// MasterKey is accepted on every endpoint and protects the status
	// and history surfaces. When empty, endpoints fall back to their own
	// keys and the status surfaces are open.
	// This should typically be loaded from an environment variable.
	MasterKey string `yaml:"master_key"`
}

// EndpointConfig contains configuration for a single virtual endpoint.
type EndpointConfig struct {
	// Route is the URL path prefix the endpoint is served under.
	// Example: "/fast" exposes POST /fast/chat/completions.
	// Must start with "/" and be unique across endpoints.
	Route string `yaml:"route"`

	// Mode controls provider selection order.
	// Options: "ordered" (configuration order), "random" (shuffled per request)
	// Default: "ordered"
	Mode string `yaml:"mode"`

	// APIKey is the key clients must present to use this endpoint. The
	// master key is always accepted as well. When both are empty the
	// endpoint accepts unauthenticated requests.
	APIKey string `yaml:"api_key"`

	// Providers is the ordered pool of upstream providers backing this
	// endpoint. At least one provider is required.
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// Name identifies the provider in logs, metrics, and status output.
	// Must be unique within its endpoint.
	Name string `yaml:"name"`

	// BaseURL is the base URL for the provider's OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider.
	// This should typically be loaded from an environment variable.
	APIKey string `yaml:"api_key"`

	// Model, when set, replaces the model field of every request relayed
	// to this provider. When empty, the client's model is passed through.
	Model string `yaml:"model"`

	// Timeout is the maximum duration for requests to this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// RetryCount is the number of same-provider retries for transport-level
	// failures before the provider is given up on. Status-code failures are
	// never retried against the same provider.
	// Default: 0
	RetryCount int `yaml:"retry_count"`
}

// RecoveryConfig contains configuration for the dead-provider recovery prober.
type RecoveryConfig struct {
	// Interval is the period between probe sweeps over dead providers.
	// A negative value disables recovery probing.
	// Default: 60s
	Interval time.Duration `yaml:"interval"`

	// ProbeModel is the model name used in probe requests when a provider
	// has no model override of its own.
	// Default: "gpt-4o-mini"
	ProbeModel string `yaml:"probe_model"`

	// ProbeTimeout is the maximum duration for a single probe request.
	// Default: 10s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// HistoryConfig contains configuration for dispatch history storage.
type HistoryConfig struct {
	// Enabled controls whether dispatch outcomes and provider state
	// transitions are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// RetentionDays is the number of days to retain history records.
	// Records older than this are eligible for pruning.
	// 0 means keep history forever (no pruning).
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port serves the metrics endpoint on a dedicated listener instead
	// of the gateway listener. Zero mounts it on the gateway listener.
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "meridian"
	Namespace string `yaml:"namespace"`

	// Subsystem is the optional second metric name segment.
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "meridian"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
