package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/akashic/internal/capture/downloader"
	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/discovery/metrics"
)

// Request is a dispatched capture candidate.
type Request struct {
	RecordID string
	Target   string
	Rule     string
}

// Manager spawns one independent session per dispatched target.
type Manager struct {
	deps     Deps
	options  downloader.Options
	registry *Registry

	wg  sync.WaitGroup
	log *slog.Logger

	// LiveOnlyExternal enables the downloader's live-only filter for targets
	// that are external links rather than video ids.
	LiveOnlyExternal bool

	// OnFinish, if set, is called after each session ends.
	OnFinish func(id string, state domain.SessionState)
}

// NewManager creates a session manager. options are the base download
// options every session starts from.
func NewManager(deps Deps, options downloader.Options, registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry(nil, 0)
	}
	return &Manager{
		deps:     deps,
		options:  options,
		registry: registry,
		log:      slog.Default().With("component", "sessions"),
	}
}

// Spawn starts a session for req in its own goroutine. It returns the session
// id, or false if the target already has a session.
func (m *Manager) Spawn(ctx context.Context, req Request) (string, bool) {
	target := domain.NormalizeTarget(req.Target)
	id := uuid.NewString()

	if !m.registry.Acquire(ctx, target, id) {
		return "", false
	}

	if m.deps.Repo != nil {
		now := time.Now()
		rec := &domain.SessionRecord{
			ID:        id,
			RecordID:  req.RecordID,
			Target:    target,
			Rule:      req.Rule,
			State:     domain.SessionStateAttempting,
			StartedAt: now,
			UpdatedAt: now,
		}
		if err := m.deps.Repo.Create(ctx, rec); err != nil {
			m.log.Warn("Failed to journal new session", "session_id", id, "error", err)
		}
	}

	opts := m.options
	if m.LiveOnlyExternal && !domain.IsVideoID(target) {
		opts.LiveOnly = true
	}

	s := New(Spec{
		ID:       id,
		RecordID: req.RecordID,
		Target:   target,
		Rule:     req.Rule,
		Options:  opts,
	}, m.deps)

	metrics.SessionsActive.Inc()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer metrics.SessionsActive.Dec()

		lockCtx, stopKeepalive := context.WithCancel(ctx)
		go m.registry.Keepalive(lockCtx, target, id)

		state := s.Run(ctx)

		stopKeepalive()
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		m.registry.Release(releaseCtx, target, id)
		cancel()

		if m.OnFinish != nil {
			m.OnFinish(id, state)
		}
	}()

	return id, true
}

// Active returns the number of running sessions.
func (m *Manager) Active() int {
	return m.registry.Active()
}

// Targets returns the targets with a running session.
func (m *Manager) Targets() []string {
	return m.registry.Targets()
}

// Wait blocks until every spawned session has ended.
func (m *Manager) Wait() {
	m.wg.Wait()
}
