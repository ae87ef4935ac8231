package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"sundial-hq/meridian/pkg/dispatch"
	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/telemetry/logging"
	"sundial-hq/meridian/pkg/telemetry/metrics"
	"sundial-hq/meridian/pkg/upstream"
)

// Request outcome labels for the request metrics.
const (
	statusSuccess   = "success"
	statusInvalid   = "invalid"
	statusForwarded = "forwarded"
	statusExhausted = "exhausted"
	statusError     = "error"
	statusTruncated = "truncated"
	statusCanceled  = "canceled"
)

// ChatHandler serves POST <route>/chat/completions for one endpoint.
type ChatHandler struct {
	endpoint   *registry.Endpoint
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewChatHandler creates the chat completion handler for an endpoint.
func NewChatHandler(ep *registry.Endpoint, d *dispatch.Dispatcher, collector *metrics.Collector, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		endpoint:   ep,
		dispatcher: d,
		metrics:    collector,
		logger:     logger.With("endpoint", ep.Route()),
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logging.WithEndpoint(r.Context(), h.endpoint.Route())
	r = r.WithContext(ctx)

	if r.Method != http.MethodPost {
		WriteError(w, NewInvalidRequestError("use POST for chat completions", "", CodeMethodNotAllowed))
		return
	}

	req, errResp := parseChatRequest(r)
	if errResp != nil {
		h.metrics.RecordRequest(h.endpoint.Route(), statusInvalid, false, time.Since(start))
		WriteError(w, errResp)
		return
	}

	if req.Stream {
		h.serveStream(w, r, req, start)
		return
	}

	result, err := h.dispatcher.Send(ctx, h.endpoint, req)
	if err != nil {
		h.writeDispatchError(w, r, err, false, start)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Body); err != nil {
		h.logger.DebugContext(ctx, "failed to write response body",
			"provider", result.Provider.Name(),
			"error", err,
		)
	}
	h.metrics.RecordRequest(h.endpoint.Route(), statusSuccess, false, time.Since(start))
}

// serveStream relays the provider's SSE stream. Once the first payload
// has been written the response is committed; a later upstream failure
// marks the provider dead and truncates the stream without a fallback.
func (h *ChatHandler) serveStream(w http.ResponseWriter, r *http.Request, req *upstream.ChatRequest, start time.Time) {
	ctx := r.Context()

	sr, err := h.dispatcher.Stream(ctx, h.endpoint, req)
	if err != nil {
		h.writeDispatchError(w, r, err, true, start)
		return
	}
	defer sr.Reader.Close()

	sse, err := newSSEWriter(w)
	if err != nil {
		WriteError(w, NewServerError("streaming is not supported by this connection"))
		return
	}

	for {
		payload, err := sr.Reader.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				if err := sse.WriteDone(); err != nil {
					h.logger.DebugContext(ctx, "failed to write stream terminator", "error", err)
				}
				h.metrics.RecordRequest(h.endpoint.Route(), statusSuccess, true, time.Since(start))
			case ctx.Err() != nil:
				// Caller went away; the provider did nothing wrong.
				h.logger.DebugContext(ctx, "stream aborted by caller",
					"provider", sr.Provider.Name(),
				)
				h.metrics.RecordRequest(h.endpoint.Route(), statusTruncated, true, time.Since(start))
			default:
				h.dispatcher.RecordStreamFailure(ctx, h.endpoint, sr.Provider, err)
				h.metrics.RecordRequest(h.endpoint.Route(), statusTruncated, true, time.Since(start))
			}
			return
		}

		if err := sse.WriteEvent(payload); err != nil {
			h.logger.DebugContext(ctx, "failed to write stream event",
				"provider", sr.Provider.Name(),
				"error", err,
			)
			h.metrics.RecordRequest(h.endpoint.Route(), statusTruncated, true, time.Since(start))
			return
		}
		h.metrics.RecordStreamChunk(h.endpoint.Route())
	}
}

// writeDispatchError maps a dispatch failure to the response: forwarded
// provider errors relay the provider's status and body verbatim,
// everything else gets a gateway envelope.
func (h *ChatHandler) writeDispatchError(w http.ResponseWriter, r *http.Request, err error, streamed bool, start time.Time) {
	ctx := r.Context()
	route := h.endpoint.Route()

	if fwd := dispatch.AsForwardable(err); fwd != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fwd.StatusCode)
		if _, werr := w.Write(fwd.Body); werr != nil {
			h.logger.DebugContext(ctx, "failed to write forwarded error body", "error", werr)
		}
		h.metrics.RecordRequest(route, statusForwarded, streamed, time.Since(start))
		return
	}

	if errors.Is(err, dispatch.ErrNoProviders) {
		h.metrics.RecordRequest(route, statusExhausted, streamed, time.Since(start))
		WriteError(w, NewServiceUnavailableError("no providers available"))
		return
	}

	if errors.Is(err, context.Canceled) {
		// Caller went away; nobody is reading an envelope.
		h.logger.DebugContext(ctx, "request canceled by caller")
		h.metrics.RecordRequest(route, statusCanceled, streamed, time.Since(start))
		return
	}

	h.logger.ErrorContext(ctx, "dispatch failed", "error", err)
	h.metrics.RecordRequest(route, statusError, streamed, time.Since(start))
	WriteError(w, HandleDispatchError(err))
}
