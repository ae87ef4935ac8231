package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sundial-hq/meridian/pkg/config"
)

// Pruner deletes history records older than the retention period on a
// cron schedule.
type Pruner struct {
	store         *Store
	retentionDays int
	schedule      string
	cron          *cron.Cron
	mu            sync.Mutex
	running       bool
	logger        *slog.Logger
}

// NewPruner creates a pruner for the store using the history retention
// settings.
func NewPruner(store *Store, cfg *config.HistoryConfig) *Pruner {
	return &Pruner{
		store:         store,
		retentionDays: cfg.RetentionDays,
		schedule:      cfg.PruneSchedule,
		cron:          cron.New(),
		logger:        slog.Default().With("component", "history.pruner"),
	}
}

// Start begins scheduled pruning. A retention of zero days or an empty
// schedule disables pruning and Start returns nil without scheduling
// anything.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.retentionDays <= 0 || p.schedule == "" {
		p.logger.Info("history pruning disabled",
			"retention_days", p.retentionDays,
			"schedule", p.schedule,
		)
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.schedule, err)
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		p.run(ctx)
	}); err != nil {
		return fmt.Errorf("schedule history pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("history pruner started",
		"schedule", p.schedule,
		"retention_days", p.retentionDays,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// run executes one pruning cycle.
func (p *Pruner) run(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -p.retentionDays)

	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Error("scheduled history pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		p.logger.Info("history pruning completed", "deleted_count", deleted)
	} else {
		p.logger.Debug("history pruning completed, no records deleted")
	}
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		<-p.cron.Stop().Done()
		p.running = false
		p.logger.Info("history pruner stopped")
	}
}
