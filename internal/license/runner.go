package license

import (
	"context"
	"log/slog"
	"time"

	"entitle/internal/infrastructure"
)

// Runner schedules validation cycles: one at start, then one per interval
// until the context is cancelled. Overlap protection lives in the
// orchestrator, so on-demand cycles triggered elsewhere are safe alongside
// the schedule.
type Runner struct {
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *slog.Logger
}

// NewRunner creates a runner for the given orchestrator and interval
func NewRunner(orchestrator *Orchestrator, interval time.Duration) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       infrastructure.WithComponent(infrastructure.GetLogger(), "validation_runner"),
	}
}

// Run blocks until ctx is cancelled, running validation cycles on schedule.
// It always returns ctx.Err(); cycle outcomes are published, never returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "validation runner started",
		slog.Duration("interval", r.interval),
	)

	r.orchestrator.RunCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "validation runner stopped")
			return ctx.Err()
		case <-ticker.C:
			r.orchestrator.RunCycle(ctx)
		}
	}
}
