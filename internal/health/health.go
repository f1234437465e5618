// Package health provides system health monitoring and status reporting.
package health

import "github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth describes one external dependency probe.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus      `json:"system_status"`
	Recovery     recovery.Health   `json:"recovery"`
	Components   []ComponentHealth `json:"components"`
	Stats        recovery.Stats    `json:"stats"`
}
