package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/infra/storage"
)

// SessionRepo keeps the session journal in memory.
type SessionRepo struct {
	sessions map[string]*domain.SessionRecord
	mu       sync.RWMutex
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{
		sessions: make(map[string]*domain.SessionRecord),
	}
}

func (r *SessionRepo) Create(ctx context.Context, session *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	now := time.Now()
	if cp.StartedAt.IsZero() {
		cp.StartedAt = now
	}
	cp.UpdatedAt = now
	r.sessions[cp.ID] = &cp
	return nil
}

func (r *SessionRepo) UpdateState(
	ctx context.Context,
	id string,
	state domain.SessionState,
	attempts int,
	lastError string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return storage.ErrSessionNotFound
	}
	s.State = state
	s.Attempts = attempts
	if lastError != "" {
		s.LastError = lastError
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (r *SessionRepo) Finish(
	ctx context.Context,
	id string,
	state domain.SessionState,
	lastError string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return storage.ErrSessionNotFound
	}
	now := time.Now()
	s.State = state
	if lastError != "" {
		s.LastError = lastError
	}
	s.UpdatedAt = now
	s.FinishedAt = &now
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.SessionRecord, 0, len(r.sessions))
	for _, s := range r.sessions {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *SessionRepo) CountByState(ctx context.Context) (map[domain.SessionState]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domain.SessionState]int)
	for _, s := range r.sessions {
		counts[s.State]++
	}
	return counts, nil
}
