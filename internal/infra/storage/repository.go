package storage

import (
	"context"
	"errors"

	"github.com/vietddude/akashic/internal/core/domain"
)

var (
	// ErrSessionNotFound is returned when a session doesn't exist
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository journals capture session lifecycles
type SessionRepository interface {
	// Create records a newly spawned session
	Create(ctx context.Context, session *domain.SessionRecord) error

	// UpdateState records a state transition and the current attempt count
	UpdateState(
		ctx context.Context,
		id string,
		state domain.SessionState,
		attempts int,
		lastError string,
	) error

	// Finish records the terminal state of a session
	Finish(ctx context.Context, id string, state domain.SessionState, lastError string) error

	// Get retrieves a session by id
	Get(ctx context.Context, id string) (*domain.SessionRecord, error)

	// ListRecent returns the most recently started sessions, newest first
	ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error)

	// CountByState returns session counts keyed by state
	CountByState(ctx context.Context) (map[domain.SessionState]int, error)
}
