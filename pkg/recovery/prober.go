// Package recovery returns dead providers to service. A background
// prober periodically sweeps every endpoint pool and sends each dead
// provider a minimal synthetic completion; a success means the provider
// is answering real API calls again and it is revived. Between sweeps no
// request traffic ever reaches a dead provider.
package recovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/telemetry/metrics"
)

// Probe outcome labels.
const (
	outcomeRevived   = "revived"
	outcomeStillDead = "still_dead"
)

// TransitionRecorder receives provider state transitions for history
// storage.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, endpoint, provider, state, reason string)
}

// Options configures a Prober. All fields except Registry are optional.
type Options struct {
	Registry *registry.Registry

	// Interval between sweeps. Zero or negative disables the prober.
	Interval time.Duration

	// ProbeTimeout bounds each individual probe request.
	ProbeTimeout time.Duration

	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Recorder TransitionRecorder
}

// Prober periodically probes dead providers and revives the ones that
// answer.
type Prober struct {
	registry     *registry.Registry
	interval     time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Collector
	recorder     TransitionRecorder
}

// New creates a Prober.
func New(opts Options) *Prober {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	return &Prober{
		registry:     opts.Registry,
		interval:     opts.Interval,
		probeTimeout: probeTimeout,
		logger:       logger,
		metrics:      opts.Metrics,
		recorder:     opts.Recorder,
	}
}

// Run blocks, sweeping dead providers every interval until the context
// is cancelled. When the interval is zero or negative the prober is
// disabled and Run returns immediately.
func (p *Prober) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("recovery prober disabled")
		return
	}

	p.logger.Info("recovery prober started",
		"interval", p.interval,
		"probe_timeout", p.probeTimeout,
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("recovery prober stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep probes every currently-dead provider once, concurrently, and
// revives the ones whose probe succeeds. It returns when every probe in
// the sweep has finished.
func (p *Prober) Sweep(ctx context.Context) {
	var wg sync.WaitGroup

	for _, ep := range p.registry.Endpoints() {
		for _, provider := range ep.Providers() {
			if !provider.IsDead() {
				continue
			}

			wg.Add(1)
			go func(route string, provider *registry.Provider) {
				defer wg.Done()
				p.probe(ctx, route, provider)
			}(ep.Route(), provider)
		}
	}

	wg.Wait()
}

// probe sends one synthetic completion to a dead provider and applies
// the result.
func (p *Prober) probe(ctx context.Context, route string, provider *registry.Provider) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	err := provider.Client().Probe(probeCtx)
	if err != nil {
		p.logger.Debug("probe failed, provider stays dead",
			"endpoint", route,
			"provider", provider.Name(),
			"error", err,
		)
		p.metrics.RecordProbe(provider.Name(), outcomeStillDead)
		return
	}

	provider.Revive()
	p.logger.Info("provider revived",
		"endpoint", route,
		"provider", provider.Name(),
	)
	p.metrics.RecordProbe(provider.Name(), outcomeRevived)
	p.metrics.UpdateProviderLiveness(route, provider.Name(), true)
	if p.recorder != nil {
		p.recorder.RecordTransition(ctx, route, provider.Name(), "live", "probe succeeded")
	}
}
