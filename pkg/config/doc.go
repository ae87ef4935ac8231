// Package config provides configuration management for Meridian.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MERIDIAN_SECTION_FIELD.
// For example:
//
//   - MERIDIAN_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - MERIDIAN_AUTH_MASTER_KEY overrides auth.master_key
//   - MERIDIAN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Provider credentials are addressed by provider name rather than position,
// so MERIDIAN_PROVIDER_OPENAI_MAIN_API_KEY overrides api_key for the
// provider named "openai-main" in every endpoint pool it appears in.
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - endpoints[0].route: route is required
//	  - endpoints[0].providers[1].base_url: base URL is required
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	endpoints:
//	  - route: "/fast"
//	    mode: ordered
//	    api_key: "sk-meridian-fast"
//	    providers:
//	      - name: "openai-main"
//	        base_url: "https://api.openai.com/v1"
//	        api_key: "${OPENAI_API_KEY}"
//	      - name: "backup"
//	        base_url: "https://backup.example.com/v1"
//	        model: "gpt-4o-mini"
//
//	recovery:
//	  interval: 60s
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Live Reload
//
// Watcher observes the configuration file and reloads it on change. A reload
// that fails validation keeps the previous configuration. Note that provider
// pool changes require a restart; the watcher only refreshes values that are
// safe to swap at runtime.
package config
