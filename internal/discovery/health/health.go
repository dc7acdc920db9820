// Package health provides system health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report.
type Report struct {
	SystemStatus        SystemStatus   `json:"system_status"`
	LastPoll            time.Time      `json:"last_poll,omitzero"`
	LastPollAge         string         `json:"last_poll_age"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastRecordCount     int            `json:"last_record_count"`
	SeenRecords         int            `json:"seen_records"`
	ActiveSessions      int            `json:"active_sessions"`
	ActiveTargets       []string       `json:"active_targets,omitempty"`
	SessionsByState     map[string]int `json:"sessions_by_state,omitempty"`
}
