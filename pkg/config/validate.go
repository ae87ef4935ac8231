package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateEndpoints(cfg.Endpoints)...)
	errs = append(errs, validateRecovery(&cfg.Recovery)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validateEndpoints validates the endpoint list, including route and
// provider-name uniqueness.
func validateEndpoints(endpoints []EndpointConfig) []FieldError {
	var errs []FieldError

	if len(endpoints) == 0 {
		errs = append(errs, FieldError{
			Field:   "endpoints",
			Message: "at least one endpoint is required",
		})
		return errs
	}

	seenRoutes := make(map[string]bool, len(endpoints))
	for i, ep := range endpoints {
		field := fmt.Sprintf("endpoints[%d]", i)

		switch {
		case ep.Route == "":
			errs = append(errs, FieldError{
				Field:   field + ".route",
				Message: "route is required",
			})
		case !strings.HasPrefix(ep.Route, "/"):
			errs = append(errs, FieldError{
				Field:   field + ".route",
				Message: fmt.Sprintf("route %q must start with /", ep.Route),
			})
		case seenRoutes[ep.Route]:
			errs = append(errs, FieldError{
				Field:   field + ".route",
				Message: fmt.Sprintf("duplicate route %q", ep.Route),
			})
		default:
			seenRoutes[ep.Route] = true
		}

		if ep.Mode != "" && ep.Mode != "ordered" && ep.Mode != "random" {
			errs = append(errs, FieldError{
				Field:   field + ".mode",
				Message: fmt.Sprintf("invalid mode %q (must be \"ordered\" or \"random\")", ep.Mode),
			})
		}

		if len(ep.Providers) == 0 {
			errs = append(errs, FieldError{
				Field:   field + ".providers",
				Message: "at least one provider is required",
			})
			continue
		}

		seenNames := make(map[string]bool, len(ep.Providers))
		for j, p := range ep.Providers {
			pfield := fmt.Sprintf("%s.providers[%d]", field, j)

			switch {
			case p.Name == "":
				errs = append(errs, FieldError{
					Field:   pfield + ".name",
					Message: "name is required",
				})
			case seenNames[p.Name]:
				errs = append(errs, FieldError{
					Field:   pfield + ".name",
					Message: fmt.Sprintf("duplicate provider name %q", p.Name),
				})
			default:
				seenNames[p.Name] = true
			}

			if p.BaseURL == "" {
				errs = append(errs, FieldError{
					Field:   pfield + ".base_url",
					Message: "base URL is required",
				})
			} else if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   pfield + ".base_url",
					Message: fmt.Sprintf("invalid base URL %q", p.BaseURL),
				})
			}

			if p.Timeout < 0 {
				errs = append(errs, FieldError{
					Field:   pfield + ".timeout",
					Message: "timeout must be positive",
				})
			}
			if p.RetryCount < 0 {
				errs = append(errs, FieldError{
					Field:   pfield + ".retry_count",
					Message: "retry count must be non-negative",
				})
			}
		}
	}

	return errs
}

// validateRecovery validates recovery prober configuration.
func validateRecovery(cfg *RecoveryConfig) []FieldError {
	var errs []FieldError

	if cfg.Interval > 0 {
		if cfg.ProbeModel == "" {
			errs = append(errs, FieldError{
				Field:   "recovery.probe_model",
				Message: "probe model is required when recovery is enabled",
			})
		}
		if cfg.ProbeTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "recovery.probe_timeout",
				Message: "probe timeout must be positive when recovery is enabled",
			})
		}
	}

	return errs
}

// validateHistory validates history storage configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "history.sqlite.path",
			Message: "sqlite path is required when history is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention_days",
			Message: "retention days must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("metrics path %q must start with /", cfg.Metrics.Path),
		})
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.port",
			Message: fmt.Sprintf("invalid port %d", cfg.Metrics.Port),
		})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}
