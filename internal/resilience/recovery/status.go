package recovery

import (
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/metrics"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/breaker"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/bulkhead"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/fallback"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/retry"
)

// Stats aggregates read-only snapshots from every primitive. Reading it
// never mutates primitive state.
type Stats struct {
	Retry          retry.Stats               `json:"retry"`
	Circuits       map[string]breaker.Status `json:"circuits"`
	Fallback       fallback.Stats            `json:"fallback"`
	Bulkhead       bulkhead.Status           `json:"bulkhead"`
	ErrorsLastHour int                       `json:"errors_last_hour"`
	HistorySize    int                       `json:"history_size"`
}

// Stats returns the combined statistics of all primitives.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Retry:          c.retry.Stats(),
		Circuits:       c.breakers.Snapshot(),
		Fallback:       c.fallback.Stats(),
		Bulkhead:       c.bulkhead.Status(),
		ErrorsLastHour: c.history.CountSince(c.now().Add(-time.Hour)),
		HistorySize:    c.history.Len(),
	}
}

// Health computes the tri-state verdict: unhealthy when any circuit is
// open or the trailing-hour error volume passes the high threshold,
// degraded when any circuit is half-open or the volume passes the medium
// threshold, healthy otherwise.
func (c *Coordinator) Health() Health {
	circuits := c.breakers.Snapshot()
	errors := c.history.CountSince(c.now().Add(-time.Hour))

	halfOpen := false
	for _, status := range circuits {
		switch status.State {
		case breaker.StateOpen:
			return HealthUnhealthy
		case breaker.StateHalfOpen:
			halfOpen = true
		}
	}

	if errors > c.cfg.UnhealthyErrorsPerHour {
		return HealthUnhealthy
	}
	if halfOpen || errors > c.cfg.DegradedErrorsPerHour {
		return HealthDegraded
	}
	return HealthHealthy
}

// Reset clears circuit breaker state, the fallback cache, and retry
// bookkeeping. The failure history is an audit trail and survives.
func (c *Coordinator) Reset() {
	c.breakers.Reset()
	c.fallback.Reset()
	c.retry.Reset()
	metrics.CircuitState.Reset()
	c.log.Info("recovery coordinator reset")
}

// History exposes the rolling failure history for pruning and the admin
// surface.
func (c *Coordinator) History() *History {
	return c.history
}
