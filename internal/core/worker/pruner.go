package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"
)

// Pruner ages out failure records from the rolling history on a fixed
// interval, flushing them to the archive.
type Pruner struct {
	history  *recovery.History
	interval time.Duration
}

// NewPruner creates a new Pruner worker.
func NewPruner(history *recovery.History, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Pruner{
		history:  history,
		interval: interval,
	}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	if err := p.history.Prune(ctx); err != nil {
		slog.Error("failed to prune failure history", "error", err)
	}
}
