package health

import (
	"context"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"
)

// Pinger probes one external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Monitor aggregates the recovery coordinator's verdict with external
// dependency probes.
type Monitor struct {
	coord      *recovery.Coordinator
	components map[string]Pinger

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a health monitor. components maps a display name to
// its probe; nil probes are skipped.
func NewMonitor(coord *recovery.Coordinator, components map[string]Pinger) *Monitor {
	probes := make(map[string]Pinger)
	for name, p := range components {
		if p != nil {
			probes[name] = p
		}
	}
	return &Monitor{coord: coord, components: probes}
}

// CheckHealth builds a health report. Checks are rate limited to at most
// once per 10s to keep probe traffic bounded; callers between checks get
// the cached report.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport.SystemStatus != "" {
		return m.lastReport
	}

	verdict := m.coord.Health()
	report := Report{
		Recovery:     verdict,
		SystemStatus: statusFromVerdict(verdict),
		Stats:        m.coord.Stats(),
	}

	for name, probe := range m.components {
		component := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := probe.Ping(ctx); err != nil {
			component.Status = StatusDegraded
			component.Error = err.Error()
			if report.SystemStatus == StatusHealthy {
				report.SystemStatus = StatusDegraded
			}
		}
		report.Components = append(report.Components, component)
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func statusFromVerdict(v recovery.Health) SystemStatus {
	switch v {
	case recovery.HealthUnhealthy:
		return StatusCritical
	case recovery.HealthDegraded:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
