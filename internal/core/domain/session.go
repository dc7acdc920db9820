package domain

import "time"

// SessionState is a capture session's position in its state machine.
type SessionState string

const (
	SessionStateAttempting    SessionState = "attempting"
	SessionStateBackoff       SessionState = "backoff"
	SessionStateReconcileLive SessionState = "reconcile_live"
	SessionStateCompleted     SessionState = "completed"
	SessionStateFatal         SessionState = "fatal"
	// SessionStateInterrupted marks a session cut short by process shutdown.
	SessionStateInterrupted SessionState = "interrupted"
)

// Terminal reports whether no further transitions leave the state.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionStateCompleted, SessionStateFatal, SessionStateInterrupted:
		return true
	}
	return false
}

// SessionRecord is the journaled view of a capture session.
type SessionRecord struct {
	ID         string
	RecordID   string
	Target     string
	Rule       string
	State      SessionState
	Attempts   int
	LastError  string
	StartedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}
