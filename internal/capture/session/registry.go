package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultLockTTL bounds how long a crashed instance can hold a target lock.
const DefaultLockTTL = 2 * time.Minute

// Locker is a cross-instance lock keyed by capture target.
type Locker interface {
	AcquireTarget(ctx context.Context, target, owner string, ttl time.Duration) (bool, error)
	RefreshTarget(ctx context.Context, target, owner string, ttl time.Duration) (bool, error)
	ReleaseTarget(ctx context.Context, target, owner string) error
}

// Registry tracks which targets have a running session so that at most one
// session exists per target.
type Registry struct {
	mu     sync.Mutex
	active map[string]string
	locker Locker
	ttl    time.Duration
	log    *slog.Logger
}

// NewRegistry creates a registry. locker may be nil for single-instance use.
func NewRegistry(locker Locker, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Registry{
		active: make(map[string]string),
		locker: locker,
		ttl:    ttl,
		log:    slog.Default().With("component", "registry"),
	}
}

// Acquire claims target for owner. It returns false if the target is already
// being captured by this process or, when a locker is configured, by another
// instance. A locker error does not block capture.
func (r *Registry) Acquire(ctx context.Context, target, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.active[target]; ok {
		r.log.Debug("Target already has a session", "target", target, "session_id", holder)
		return false
	}

	if r.locker != nil {
		ok, err := r.locker.AcquireTarget(ctx, target, owner, r.ttl)
		if err != nil {
			r.log.Warn("Target lock unavailable, continuing locally", "target", target, "error", err)
		} else if !ok {
			r.log.Info("Target locked by another instance", "target", target)
			return false
		}
	}

	r.active[target] = owner
	return true
}

// Release frees target if owner holds it.
func (r *Registry) Release(ctx context.Context, target, owner string) {
	r.mu.Lock()
	if r.active[target] == owner {
		delete(r.active, target)
	}
	r.mu.Unlock()

	if r.locker == nil {
		return
	}
	if err := r.locker.ReleaseTarget(ctx, target, owner); err != nil {
		r.log.Warn("Failed to release target lock", "target", target, "error", err)
	}
}

// Keepalive refreshes the cross-instance lock until ctx is done.
func (r *Registry) Keepalive(ctx context.Context, target, owner string) {
	if r.locker == nil {
		return
	}
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := r.locker.RefreshTarget(ctx, target, owner, r.ttl)
			if err != nil {
				r.log.Warn("Failed to refresh target lock", "target", target, "error", err)
				continue
			}
			if !ok {
				r.log.Warn("Target lock lost", "target", target)
			}
		}
	}
}

// Active returns the number of targets with a running session.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Targets returns a sorted snapshot of active targets.
func (r *Registry) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.active))
	for t := range r.active {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
