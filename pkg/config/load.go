package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Booleans that default to true are seeded before unmarshal so a
	// document that omits them keeps the default while an explicit
	// "enabled: false" still wins.
	var cfg Config
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.History.Enabled = DefaultHistoryEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MERIDIAN_SECTION_FIELD (e.g., MERIDIAN_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MERIDIAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("MERIDIAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}

	// Auth overrides
	if val := os.Getenv("MERIDIAN_AUTH_MASTER_KEY"); val != "" {
		cfg.Auth.MasterKey = val
	}

	// Per-provider overrides, addressed by endpoint route and provider name
	applyProviderEnvOverrides(cfg)

	// Recovery overrides
	if val := os.Getenv("MERIDIAN_RECOVERY_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Recovery.Interval = d
		}
	}
	if val := os.Getenv("MERIDIAN_RECOVERY_PROBE_MODEL"); val != "" {
		cfg.Recovery.ProbeModel = val
	}
	if val := os.Getenv("MERIDIAN_RECOVERY_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Recovery.ProbeTimeout = d
		}
	}

	// History overrides
	if val := os.Getenv("MERIDIAN_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_HISTORY_SQLITE_PATH"); val != "" {
		cfg.History.SQLite.Path = val
	}
	if val := os.Getenv("MERIDIAN_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.RetentionDays = i
		}
	}
	if val := os.Getenv("MERIDIAN_HISTORY_PRUNE_SCHEDULE"); val != "" {
		cfg.History.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies per-provider environment variable
// overrides. Provider variables follow the format
// MERIDIAN_PROVIDER_<NAME>_<FIELD>, where NAME is the uppercase provider
// name with dashes replaced by underscores. The override applies to every
// endpoint pool the named provider appears in, which keeps API keys out of
// the configuration file without repeating them per endpoint.
func applyProviderEnvOverrides(cfg *Config) {
	for i := range cfg.Endpoints {
		for j := range cfg.Endpoints[i].Providers {
			p := &cfg.Endpoints[i].Providers[j]
			prefix := "MERIDIAN_PROVIDER_" + envKey(p.Name) + "_"

			if val := os.Getenv(prefix + "BASE_URL"); val != "" {
				p.BaseURL = val
			}
			if val := os.Getenv(prefix + "API_KEY"); val != "" {
				p.APIKey = val
			}
			if val := os.Getenv(prefix + "MODEL"); val != "" {
				p.Model = val
			}
			if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
				if d, err := time.ParseDuration(val); err == nil {
					p.Timeout = d
				}
			}
			if val := os.Getenv(prefix + "RETRY_COUNT"); val != "" {
				if n, err := strconv.Atoi(val); err == nil {
					p.RetryCount = n
				}
			}
		}
	}
}

// envKey converts a provider name to its environment variable segment.
func envKey(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}
