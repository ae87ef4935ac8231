package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"sundial-hq/meridian/pkg/config"
	"sundial-hq/meridian/pkg/dispatch"
)

const (
	// writeBuffer is the size of the async write channel.
	writeBuffer = 1000

	// writeTimeout bounds each storage write performed by the worker.
	writeTimeout = 5 * time.Second
)

// DispatchEntry is one recorded provider attempt.
type DispatchEntry struct {
	ID         int64         `json:"id"`
	RequestID  string        `json:"request_id"`
	Endpoint   string        `json:"endpoint"`
	Provider   string        `json:"provider"`
	Outcome    string        `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Streamed   bool          `json:"streamed"`
	Duration   time.Duration `json:"duration_ms"`
	CreatedAt  time.Time     `json:"created_at"`
}

// TransitionEntry is one recorded provider state transition.
type TransitionEntry struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Provider  string    `json:"provider"`
	State     string    `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// event is one pending write for the background worker. A barrier
// event carries no data; the worker closes the channel once every
// earlier event has been applied.
type event struct {
	dispatch   *DispatchEntry
	transition *TransitionEntry
	barrier    chan struct{}
}

// Store persists dispatch history to a SQLite database.
//
// Record methods enqueue writes and return immediately; a background
// worker drains the queue. When the queue is full records are dropped.
type Store struct {
	db      *sql.DB
	events  chan event
	done    chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Int64
	logger  *slog.Logger

	closeOnce sync.Once
}

// NewStore opens the SQLite database at cfg.SQLite.Path, creating the
// file and schema as needed, and starts the async write worker.
func NewStore(cfg *config.HistoryConfig) (*Store, error) {
	logger := slog.Default().With("component", "history.store")

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(cfg.SQLite.MaxOpenConns)

	s := &Store{
		db:     db,
		events: make(chan event, writeBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}

	if err := s.initialize(cfg.SQLite.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.worker()

	logger.Info("history store initialized",
		"path", cfg.SQLite.Path,
		"max_open_conns", cfg.SQLite.MaxOpenConns,
	)

	return s, nil
}

// initialize enables WAL mode, sets the busy timeout, and creates the schema.
func (s *Store) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}

	if busyTimeout > 0 {
		_, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds()))
		if err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// RecordDispatch enqueues a dispatch outcome for storage.
// It never blocks; if the write queue is full the record is dropped.
func (s *Store) RecordDispatch(_ context.Context, rec dispatch.Record) {
	s.enqueue(event{dispatch: &DispatchEntry{
		RequestID:  rec.RequestID,
		Endpoint:   rec.Endpoint,
		Provider:   rec.Provider,
		Outcome:    rec.Outcome,
		StatusCode: rec.StatusCode,
		Streamed:   rec.Streamed,
		Duration:   rec.Duration,
		CreatedAt:  time.Now().UTC(),
	}})
}

// RecordTransition enqueues a provider state transition for storage.
// It never blocks; if the write queue is full the record is dropped.
func (s *Store) RecordTransition(_ context.Context, endpoint, provider, state, reason string) {
	s.enqueue(event{transition: &TransitionEntry{
		Endpoint:  endpoint,
		Provider:  provider,
		State:     state,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}})
}

func (s *Store) enqueue(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	default:
		dropped := s.dropped.Add(1)
		if dropped%100 == 1 {
			s.logger.Warn("history write queue full, dropping records",
				"dropped_total", dropped,
			)
		}
	}
}

// worker drains the event channel until Close.
func (s *Store) worker() {
	defer s.wg.Done()

	for {
		select {
		case ev := <-s.events:
			s.write(ev)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case ev := <-s.events:
					s.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) write(ev event) {
	if ev.barrier != nil {
		close(ev.barrier)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch {
	case ev.dispatch != nil:
		d := ev.dispatch
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO dispatches (request_id, endpoint, provider, outcome, status_code, streamed, duration_ms, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.RequestID, d.Endpoint, d.Provider, d.Outcome, d.StatusCode,
			d.Streamed, d.Duration.Milliseconds(), d.CreatedAt,
		)
	case ev.transition != nil:
		t := ev.transition
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO transitions (endpoint, provider, state, reason, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			t.Endpoint, t.Provider, t.State, t.Reason, t.CreatedAt,
		)
	}

	if err != nil {
		s.logger.Error("history write failed", "error", err)
	}
}

// RecentDispatches returns the most recent dispatch entries, newest
// first, up to limit. An endpoint filter may be empty.
func (s *Store) RecentDispatches(ctx context.Context, endpoint string, limit int) ([]DispatchEntry, error) {
	query := `SELECT id, request_id, endpoint, provider, outcome, status_code, streamed, duration_ms, created_at
	          FROM dispatches`
	args := []any{}
	if endpoint != "" {
		query += ` WHERE endpoint = ?`
		args = append(args, endpoint)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	var entries []DispatchEntry
	for rows.Next() {
		var e DispatchEntry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Endpoint, &e.Provider,
			&e.Outcome, &e.StatusCode, &e.Streamed, &durationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispatch row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentTransitions returns the most recent provider state transitions,
// newest first, up to limit.
func (s *Store) RecentTransitions(ctx context.Context, limit int) ([]TransitionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, endpoint, provider, state, reason, created_at
		 FROM transitions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var entries []TransitionEntry
	for rows.Next() {
		var e TransitionEntry
		if err := rows.Scan(&e.ID, &e.Endpoint, &e.Provider, &e.State, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transition row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes dispatch and transition records created before cutoff.
// It returns the total number of rows deleted.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64

	res, err := s.db.ExecContext(ctx, `DELETE FROM dispatches WHERE created_at < ?`, cutoff)
	if err != nil {
		return total, fmt.Errorf("prune dispatches: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.db.ExecContext(ctx, `DELETE FROM transitions WHERE created_at < ?`, cutoff)
	if err != nil {
		return total, fmt.Errorf("prune transitions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}

// Flush blocks until every write queued before the call has been
// applied.
func (s *Store) Flush() {
	barrier := make(chan struct{})
	select {
	case s.events <- event{barrier: barrier}:
		<-barrier
	case <-s.done:
	}
}

// Close stops the write worker, applies queued writes, and closes the
// database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		err = s.db.Close()
		s.logger.Info("history store closed", "dropped_writes", s.dropped.Load())
	})
	return err
}
