package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"sundial-hq/meridian/pkg/history"
	"sundial-hq/meridian/pkg/registry"
)

// HealthHandler answers liveness checks. It is unauthenticated and
// always returns 200; a response at all means the process is up.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// StatusHandler reports the live provider snapshot for every endpoint.
func StatusHandler(reg *registry.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteError(w, NewInvalidRequestError("use GET for status", "", CodeMethodNotAllowed))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"endpoints": reg.Snapshot(),
		}); err != nil {
			slog.ErrorContext(r.Context(), "failed to write status response", "error", err)
		}
	})
}

// HistoryReader is the slice of the history store the status surface
// needs. A nil reader means history is disabled.
type HistoryReader interface {
	RecentDispatches(ctx context.Context, endpoint string, limit int) ([]history.DispatchEntry, error)
	RecentTransitions(ctx context.Context, limit int) ([]history.TransitionEntry, error)
}

// historyLimit caps the rows returned by the history endpoint. The
// caller can narrow it with ?limit=.
const historyLimit = 100

// HistoryHandler reports recent dispatch outcomes and provider state
// transitions. Optional query parameters: endpoint (route filter) and
// limit.
func HistoryHandler(reader HistoryReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteError(w, NewInvalidRequestError("use GET for history", "", CodeMethodNotAllowed))
			return
		}

		if reader == nil {
			WriteError(w, NewErrorResponse("history is disabled", ErrorTypeNotFound, "", ""))
			return
		}

		limit := historyLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				WriteError(w, NewInvalidRequestError("limit must be a positive integer", "limit", CodeInvalidValue))
				return
			}
			if n < limit {
				limit = n
			}
		}

		ctx := r.Context()
		dispatches, err := reader.RecentDispatches(ctx, r.URL.Query().Get("endpoint"), limit)
		if err != nil {
			slog.ErrorContext(ctx, "failed to query dispatch history", "error", err)
			WriteError(w, NewServerError("failed to query history"))
			return
		}

		transitions, err := reader.RecentTransitions(ctx, limit)
		if err != nil {
			slog.ErrorContext(ctx, "failed to query transition history", "error", err)
			WriteError(w, NewServerError("failed to query history"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"dispatches":  dispatches,
			"transitions": transitions,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to write history response", "error", err)
		}
	})
}
