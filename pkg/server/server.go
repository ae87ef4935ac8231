package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sundial-hq/meridian/pkg/config"
	"sundial-hq/meridian/pkg/dispatch"
	"sundial-hq/meridian/pkg/gateway"
	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/telemetry/metrics"
)

// Options carries the collaborators the server mounts.
type Options struct {
	// Config is the full gateway configuration.
	Config *config.Config

	// Registry holds the endpoints and their provider pools.
	Registry *registry.Registry

	// Dispatcher runs the failover dispatch for every chat request.
	Dispatcher *dispatch.Dispatcher

	// Metrics serves the Prometheus exposition endpoint when enabled.
	// May be nil.
	Metrics *metrics.Collector

	// History backs the /status/history endpoint. May be nil when
	// history is disabled.
	History gateway.HistoryReader

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Server is the gateway HTTP server.
type Server struct {
	config        *config.Config
	registry      *registry.Registry
	dispatcher    *dispatch.Dispatcher
	metrics       *metrics.Collector
	history       gateway.HistoryReader
	logger        *slog.Logger
	httpServer    *http.Server
	metricsServer *http.Server
	shutdownOnce  sync.Once
	mu            sync.RWMutex
	running       bool
}

// New creates the server. It does not start listening.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:     opts.Config,
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		history:    opts.History,
		logger:     logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	srv := &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			"address", s.config.Server.ListenAddress,
			"endpoints", len(s.config.Endpoints),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	if msrv := s.metricsHandlerServer(); msrv != nil {
		s.mu.Lock()
		s.metricsServer = msrv
		s.mu.Unlock()

		go func() {
			s.logger.Info("starting metrics server", "address", msrv.Addr)
			if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to the
// configured shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		msrv := s.metricsServer
		s.running = false
		s.mu.Unlock()

		if srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
		if msrv != nil {
			if err := msrv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during metrics server shutdown", "error", err)
			}
		}

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler builds the full route table and middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	masterKey := s.config.Auth.MasterKey

	for _, ep := range s.registry.Endpoints() {
		chat := gateway.NewChatHandler(ep, s.dispatcher, s.metrics, s.logger)
		mux.Handle(ep.Route()+"/chat/completions",
			gateway.AuthMiddleware(ep.APIKey(), masterKey)(chat))
	}

	mux.Handle("/health", gateway.HealthHandler())
	mux.Handle("/status",
		gateway.MasterKeyMiddleware(masterKey)(gateway.StatusHandler(s.registry)))
	mux.Handle("/status/history",
		gateway.MasterKeyMiddleware(masterKey)(gateway.HistoryHandler(s.history)))

	// Metrics share the gateway listener unless a dedicated port is set.
	mcfg := &s.config.Telemetry.Metrics
	if mcfg.Enabled && s.metrics != nil && mcfg.Port == 0 {
		mux.Handle(mcfg.Path, s.metrics.Handler())
	}

	// Request ID runs before logging so completion logs carry it.
	return gateway.Chain(mux,
		gateway.RecoveryMiddleware,
		gateway.RequestIDMiddleware,
		gateway.LoggingMiddleware,
		gateway.CORSMiddleware(&s.config.Server.CORS),
	)
}

// metricsHandlerServer builds the dedicated metrics server, nil when
// metrics are disabled or share the gateway listener.
func (s *Server) metricsHandlerServer() *http.Server {
	mcfg := &s.config.Telemetry.Metrics
	if !mcfg.Enabled || s.metrics == nil || mcfg.Port == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(mcfg.Path, s.metrics.Handler())

	return &http.Server{
		Addr:        fmt.Sprintf(":%d", mcfg.Port),
		Handler:     mux,
		ReadTimeout: s.config.Server.ReadTimeout,
		IdleTimeout: s.config.Server.IdleTimeout,
	}
}
