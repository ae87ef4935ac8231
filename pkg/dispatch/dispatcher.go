package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/telemetry/logging"
	"sundial-hq/meridian/pkg/telemetry/metrics"
	"sundial-hq/meridian/pkg/telemetry/tracing"
	"sundial-hq/meridian/pkg/upstream"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Outcome labels for attempt records and metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeDeadMarked = "dead_marked"
	OutcomeForwarded  = "forwarded"
)

// Record describes one dispatch attempt for history storage.
type Record struct {
	RequestID  string
	Endpoint   string
	Provider   string
	Outcome    string
	StatusCode int
	Streamed   bool
	Duration   time.Duration
}

// Recorder receives dispatch outcomes and provider state transitions.
// Implementations must not block the dispatch path.
type Recorder interface {
	RecordDispatch(ctx context.Context, rec Record)
	RecordTransition(ctx context.Context, endpoint, provider, state, reason string)
}

// Result is a completed synchronous dispatch.
type Result struct {
	// Provider served the request.
	Provider *registry.Provider

	// Body is the upstream response body, verbatim.
	Body []byte
}

// StreamResult is a successfully opened streaming dispatch. The caller
// owns the reader and must Close it; a mid-relay failure must be
// reported through RecordStreamFailure.
type StreamResult struct {
	// Provider is serving the stream.
	Provider *registry.Provider

	// Reader yields the upstream SSE data payloads.
	Reader *upstream.StreamReader
}

// Options configures a Dispatcher. All fields are optional; zero values
// disable the corresponding integration.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Tracer   *tracing.Tracer
	Recorder Recorder
}

// Dispatcher walks an endpoint's candidate providers until one serves
// the request. It owns the dead-marking policy; the upstream clients
// only classify failures.
type Dispatcher struct {
	logger   *slog.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	recorder Recorder
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:   logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		recorder: opts.Recorder,
	}
}

// Send relays a synchronous completion through the endpoint's pool and
// returns the first successful upstream response verbatim.
//
// A client-class upstream response (4xx other than 401/403/429) is
// returned as *upstream.UpstreamError for verbatim forwarding and stops
// the dispatch with provider state unchanged. ErrNoProviders is returned
// when no candidate remains.
func (d *Dispatcher) Send(ctx context.Context, ep *registry.Endpoint, req *upstream.ChatRequest) (*Result, error) {
	var result *Result
	err := d.dispatch(ctx, ep, req, false, func(ctx context.Context, p *registry.Provider, req *upstream.ChatRequest) error {
		body, err := p.Client().Send(ctx, req)
		if err != nil {
			return err
		}
		result = &Result{Provider: p, Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stream relays a streaming completion. Selection and failover work
// exactly as in Send up to the moment an upstream response opens; from
// then on the stream is committed to that provider and failures are the
// caller's to report via RecordStreamFailure.
func (d *Dispatcher) Stream(ctx context.Context, ep *registry.Endpoint, req *upstream.ChatRequest) (*StreamResult, error) {
	var result *StreamResult
	err := d.dispatch(ctx, ep, req, true, func(ctx context.Context, p *registry.Provider, req *upstream.ChatRequest) error {
		reader, err := p.Client().Stream(ctx, req)
		if err != nil {
			return err
		}
		result = &StreamResult{Provider: p, Reader: reader}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordStreamFailure marks a provider dead after a mid-relay stream
// failure. There is no fallback at this point: bytes already reached the
// caller, so the relay truncates and the next request fails over.
func (d *Dispatcher) RecordStreamFailure(ctx context.Context, ep *registry.Endpoint, p *registry.Provider, err error) {
	p.MarkDead()

	d.logger.Warn("stream failed mid-relay, provider marked dead",
		append(logging.ContextAttrs(ctx),
			"endpoint", ep.Route(),
			"provider", p.Name(),
			"error", err,
		)...)

	d.metrics.UpdateProviderLiveness(ep.Route(), p.Name(), false)
	if d.recorder != nil {
		d.recorder.RecordTransition(ctx, ep.Route(), p.Name(), "dead", err.Error())
	}
}

// dispatch runs the candidate loop shared by Send and Stream.
func (d *Dispatcher) dispatch(ctx context.Context, ep *registry.Endpoint, req *upstream.ChatRequest, streamed bool, attempt func(context.Context, *registry.Provider, *upstream.ChatRequest) error) (err error) {
	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "meridian.dispatch")
		span.SetAttributes(
			attribute.String("endpoint", ep.Route()),
			attribute.Bool("streamed", streamed),
		)
		defer func() {
			tracing.SetError(span, err)
			span.End()
		}()
	}

	candidates := Select(ep)
	if len(candidates) == 0 {
		d.metrics.RecordExhaustion(ep.Route())
		return ErrNoProviders
	}

	for i, p := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		attemptReq := req
		if model := p.ModelOverride(); model != "" {
			attemptReq = req.WithModel(model)
		}

		p.MarkUsed()
		start := time.Now()

		err := d.attemptOnce(ctx, ep, p, streamed, attemptReq, attempt)
		if d.finishAttempt(ctx, ep, p, streamed, time.Since(start), err) {
			return err
		}
		if i < len(candidates)-1 {
			d.metrics.RecordFailover(ep.Route())
		}
	}

	d.logger.Warn("all candidate providers failed",
		append(logging.ContextAttrs(ctx),
			"endpoint", ep.Route(),
			"candidates", len(candidates),
		)...)
	d.metrics.RecordExhaustion(ep.Route())
	return ErrNoProviders
}

// attemptOnce runs one attempt, wrapped in a span when tracing is wired.
func (d *Dispatcher) attemptOnce(ctx context.Context, ep *registry.Endpoint, p *registry.Provider, streamed bool, req *upstream.ChatRequest, attempt func(context.Context, *registry.Provider, *upstream.ChatRequest) error) error {
	if d.tracer == nil {
		return attempt(ctx, p, req)
	}

	ctx, span := d.tracer.Start(ctx, "meridian.dispatch.attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("endpoint", ep.Route()),
		attribute.String("provider", p.Name()),
		attribute.Bool("streamed", streamed),
	)

	err := attempt(ctx, p, req)
	tracing.SetError(span, err)
	return err
}

// finishAttempt applies the failure policy for one attempt and records
// its outcome. It returns true when the dispatch is finished (success or
// a forwardable client error) and false when the loop should fail over.
func (d *Dispatcher) finishAttempt(ctx context.Context, ep *registry.Endpoint, p *registry.Provider, streamed bool, elapsed time.Duration, err error) bool {
	route := ep.Route()

	switch {
	case err == nil:
		d.logger.Debug("dispatch attempt succeeded",
			append(logging.ContextAttrs(ctx),
				"endpoint", route,
				"provider", p.Name(),
				"duration_ms", elapsed.Milliseconds(),
			)...)
		d.record(ctx, route, p.Name(), OutcomeSuccess, 0, streamed, elapsed)
		return true

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Caller went away; neither the provider's fault nor worth
		// another attempt.
		return true

	case IsDeadMarking(err):
		p.MarkDead()
		d.logger.Warn("provider failed, marked dead",
			append(logging.ContextAttrs(ctx),
				"endpoint", route,
				"provider", p.Name(),
				"error", err,
			)...)
		d.metrics.UpdateProviderLiveness(route, p.Name(), false)
		d.record(ctx, route, p.Name(), OutcomeDeadMarked, statusCode(err), streamed, elapsed)
		if d.recorder != nil {
			d.recorder.RecordTransition(ctx, route, p.Name(), "dead", err.Error())
		}
		return false

	default:
		// Client-class upstream response: forwarded verbatim, provider
		// stays live, no further candidates.
		d.logger.Debug("upstream client error forwarded",
			append(logging.ContextAttrs(ctx),
				"endpoint", route,
				"provider", p.Name(),
				"status", statusCode(err),
			)...)
		d.record(ctx, route, p.Name(), OutcomeForwarded, statusCode(err), streamed, elapsed)
		return true
	}
}

// record emits attempt metrics and the history record.
func (d *Dispatcher) record(ctx context.Context, endpoint, provider, outcome string, status int, streamed bool, elapsed time.Duration) {
	d.metrics.RecordAttempt(endpoint, provider, outcome)
	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, Record{
			RequestID:  logging.GetRequestID(ctx),
			Endpoint:   endpoint,
			Provider:   provider,
			Outcome:    outcome,
			StatusCode: status,
			Streamed:   streamed,
			Duration:   elapsed,
		})
	}
}

// statusCode extracts the upstream HTTP status from a typed provider
// error, zero when the failure never produced a status.
func statusCode(err error) int {
	var authErr *upstream.AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var rateErr *upstream.RateLimitError
	if errors.As(err, &rateErr) {
		return 429
	}
	var upErr *upstream.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}
