package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sundial-hq/meridian/pkg/config"
	"sundial-hq/meridian/pkg/dispatch"
	"sundial-hq/meridian/pkg/gateway"
	"sundial-hq/meridian/pkg/history"
	"sundial-hq/meridian/pkg/recovery"
	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/server"
	"sundial-hq/meridian/pkg/telemetry/logging"
	"sundial-hq/meridian/pkg/telemetry/metrics"
	"sundial-hq/meridian/pkg/telemetry/tracing"
	"sundial-hq/meridian/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Meridian gateway",
	Long: `Start the Meridian gateway with the specified configuration.

The gateway listens on the configured address and relays chat completion
requests to the first live provider of each endpoint's pool, failing
over on provider errors.

Examples:
  # Start with the default config file
  meridian run

  # Start with a custom config
  meridian run --config /etc/meridian/config.yaml

  # Override the listen address
  meridian run --listen 0.0.0.0:8080

  # Validate config without starting
  meridian run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "revalidate the config file on change")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	reg, err := registry.New(endpointSpecs(cfg))
	if err != nil {
		return fmt.Errorf("failed to build endpoint registry: %w", err)
	}
	defer reg.Close()

	// Seed the liveness gauge: every provider starts live.
	for _, ep := range reg.Endpoints() {
		for _, p := range ep.Providers() {
			collector.UpdateProviderLiveness(ep.Route(), p.Name(), true)
		}
	}

	var (
		store         *history.Store
		recorder      dispatch.Recorder
		historyReader gateway.HistoryReader
	)
	if cfg.History.Enabled {
		store, err = history.NewStore(&cfg.History)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()
		recorder = store
		historyReader = store

		pruner := history.NewPruner(store, &cfg.History)
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start history pruner", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	dispatcher := dispatch.New(dispatch.Options{
		Logger:   logger,
		Metrics:  collector,
		Tracer:   tracer,
		Recorder: recorder,
	})

	proberOpts := recovery.Options{
		Registry:     reg,
		Interval:     cfg.Recovery.Interval,
		ProbeTimeout: cfg.Recovery.ProbeTimeout,
		Logger:       logger,
		Metrics:      collector,
	}
	if store != nil {
		proberOpts.Recorder = store
	}
	go recovery.New(proberOpts).Run(ctx)

	if runFlags.watchConfig {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			// Topology is immutable at runtime; a reload only
			// revalidates the file and reports the outcome.
			go func() {
				_ = watcher.Watch(ctx, func(next *config.Config) {
					logger.Info("config file change validated; restart to apply",
						"path", cfgFile,
						"endpoints", len(next.Endpoints),
					)
				})
			}()
		}
	}

	srv := server.New(server.Options{
		Config:     cfg,
		Registry:   reg,
		Dispatcher: dispatcher,
		Metrics:    collector,
		History:    historyReader,
		Logger:     logger,
	})

	return srv.Start(ctx)
}

// endpointSpecs translates the endpoint configuration into registry
// specs, fanning the recovery probe settings into each provider.
func endpointSpecs(cfg *config.Config) []registry.EndpointSpec {
	specs := make([]registry.EndpointSpec, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		providers := make([]upstream.Config, 0, len(ep.Providers))
		for _, p := range ep.Providers {
			providers = append(providers, upstream.Config{
				Name:       p.Name,
				BaseURL:    p.BaseURL,
				APIKey:     p.APIKey,
				Model:      p.Model,
				ProbeModel: cfg.Recovery.ProbeModel,
				Timeout:    p.Timeout,
				Retries:    p.RetryCount,
			})
		}
		specs = append(specs, registry.EndpointSpec{
			Route:     ep.Route,
			Mode:      registry.Mode(ep.Mode),
			APIKey:    ep.APIKey,
			Providers: providers,
		})
	}
	return specs
}
