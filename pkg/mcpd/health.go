package mcpd

import "time"

// HealthStatus represents the daemon's view of an MCP server's availability.
type HealthStatus string

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// ServerHealth is one entry of the daemon's health snapshot.
type ServerHealth struct {
	Name           string         `json:"name"`
	Status         HealthStatus   `json:"status"`
	Latency        *time.Duration `json:"latency,omitempty"`
	LastChecked    *time.Time     `json:"lastChecked,omitempty"`
	LastSuccessful *time.Time     `json:"lastSuccessful,omitempty"`
}
