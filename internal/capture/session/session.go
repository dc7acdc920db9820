// Package session runs one capture target through repeated download attempts
// until the broadcast is confirmed finished or the attempt is abandoned.
//
// A session is a single sequential task:
//
//	Attempting ──success──▶ ReconcileLive ──ended──▶ Completed
//	    │  ▲                     │
//	    │  └───────live/upcoming─┘
//	    ├──scheduled/transient──▶ Backoff ──sleep──▶ Attempting
//	    ├──member gate (first)──▶ Attempting (credentials attached)
//	    └──unrecognized/member gate (again)──▶ Fatal
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vietddude/akashic/internal/capture/backoff"
	"github.com/vietddude/akashic/internal/capture/downloader"
	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/discovery/metrics"
	"github.com/vietddude/akashic/internal/infra/metadata"
	"github.com/vietddude/akashic/internal/infra/storage"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Spec identifies what a session captures.
type Spec struct {
	ID       string
	RecordID string
	Target   string
	Rule     string
	Options  downloader.Options
}

// Deps are the collaborators a session drives.
type Deps struct {
	Downloader downloader.Downloader
	Metadata   metadata.Source
	Repo       storage.SessionRepository
	Policy     backoff.Policy
	// CookieFile is attached once when the source requires membership.
	CookieFile string
	Sleep      SleepFunc
}

// Session is the per-target state machine. It is not safe for concurrent use.
type Session struct {
	spec  Spec
	deps  Deps
	opts  downloader.Options
	state domain.SessionState
	wait  time.Duration

	credentialAttempted bool
	reconcileRequired   bool
	attempts            int
	lastError           string

	history []domain.SessionState
	log     *slog.Logger
}

// New builds a session in the Attempting state.
func New(spec Spec, deps Deps) *Session {
	if deps.Sleep == nil {
		deps.Sleep = Sleep
	}
	return &Session{
		spec:    spec,
		deps:    deps,
		opts:    spec.Options,
		state:   domain.SessionStateAttempting,
		history: []domain.SessionState{domain.SessionStateAttempting},
		log: slog.Default().With(
			"component", "session",
			"session_id", spec.ID,
			"target", spec.Target,
			"record_id", spec.RecordID,
		),
	}
}

// Run drives the session to a terminal state and returns it.
func (s *Session) Run(ctx context.Context) domain.SessionState {
	s.log.Info("Capture session started", "rule", s.spec.Rule)

	for !s.state.Terminal() {
		switch s.state {
		case domain.SessionStateAttempting:
			s.attempt(ctx)
		case domain.SessionStateBackoff:
			s.backoff(ctx)
		case domain.SessionStateReconcileLive:
			s.reconcile(ctx)
		default:
			s.log.Error("Session in unknown state", "state", s.state)
			s.transition(ctx, domain.SessionStateFatal)
		}
	}

	s.finish(ctx)
	return s.state
}

func (s *Session) attempt(ctx context.Context) {
	s.attempts++
	s.log.Debug("Starting download attempt", "attempt", s.attempts, "cookies", s.opts.CookieFile != "")

	res, err := s.deps.Downloader.Attempt(ctx, s.spec.Target, s.opts)
	if err == nil {
		metrics.DownloadAttemptsTotal.WithLabelValues("success").Inc()
		s.reconcileRequired = res.ReconcileRequired
		s.log.Info("Download attempt ended without error",
			"domain", res.Domain, "reconcile", res.ReconcileRequired)
		if s.reconcileRequired {
			s.transition(ctx, domain.SessionStateReconcileLive)
		} else {
			s.transition(ctx, domain.SessionStateCompleted)
		}
		return
	}

	if ctx.Err() != nil {
		s.transition(ctx, domain.SessionStateInterrupted)
		return
	}

	var failure *downloader.FailureError
	if !errors.As(err, &failure) {
		metrics.DownloadAttemptsTotal.WithLabelValues("error").Inc()
		s.lastError = err.Error()
		s.log.Error("Download attempt could not run", "error", err)
		s.transition(ctx, domain.SessionStateFatal)
		return
	}

	metrics.DownloadAttemptsTotal.WithLabelValues("failure").Inc()
	s.lastError = failure.Text
	s.handleFailure(ctx, backoff.Classify(failure.Text))
}

func (s *Session) handleFailure(ctx context.Context, f backoff.Failure) {
	switch f.Kind {
	case backoff.KindScheduledRetry, backoff.KindTransient:
		wait, ok := s.deps.Policy.Wait(f.Unit, f.Magnitude)
		if !ok {
			s.log.Error("No backoff decision for failure", "error", f.Raw, "keyword", f.Token)
			s.transition(ctx, domain.SessionStateFatal)
			return
		}
		s.wait = wait
		metrics.BackoffSeconds.WithLabelValues(f.Unit.String()).Observe(wait.Seconds())
		level := slog.LevelInfo
		if f.Kind == backoff.KindTransient {
			level = slog.LevelWarn
		}
		s.log.Log(ctx, level, f.Raw,
			"unit", f.Unit.String(),
			"magnitude", f.Magnitude,
			"wait", wait.String(),
			"next_attempt", humanize.Time(time.Now().Add(wait)),
		)
		s.transition(ctx, domain.SessionStateBackoff)

	case backoff.KindMemberGate:
		s.log.Warn(f.Raw)
		if s.credentialAttempted || s.deps.CookieFile == "" {
			s.log.Warn("Failed membership authentication",
				"credential_attempted", s.credentialAttempted)
			s.transition(ctx, domain.SessionStateFatal)
			return
		}
		s.credentialAttempted = true
		s.opts.CookieFile = s.deps.CookieFile
		s.log.Info("Retrying with credential file", "cookie_file", s.deps.CookieFile)
		s.transition(ctx, domain.SessionStateAttempting)

	default:
		s.log.Error("Unsupported error message", "error", f.Raw, "keyword", f.Token)
		s.transition(ctx, domain.SessionStateFatal)
	}
}

func (s *Session) backoff(ctx context.Context) {
	if err := s.deps.Sleep(ctx, s.wait); err != nil {
		s.transition(ctx, domain.SessionStateInterrupted)
		return
	}
	s.transition(ctx, domain.SessionStateAttempting)
}

func (s *Session) reconcile(ctx context.Context) {
	if s.deps.Metadata == nil {
		s.log.Error("Live status reconciliation required but no metadata source configured")
		s.transition(ctx, domain.SessionStateFatal)
		return
	}

	s.log.Info("Checking live status with metadata source")
	status, err := s.deps.Metadata.LiveStatus(ctx, s.spec.Target)
	if err != nil {
		if ctx.Err() != nil {
			s.transition(ctx, domain.SessionStateInterrupted)
			return
		}
		metrics.ReconcileTotal.WithLabelValues("error").Inc()
		s.lastError = err.Error()
		s.log.Error("Live status lookup failed", "error", err)
		s.transition(ctx, domain.SessionStateFatal)
		return
	}
	metrics.ReconcileTotal.WithLabelValues(string(status)).Inc()

	switch status {
	case metadata.StatusLive:
		s.log.Warn("Video is still live, resuming capture")
		s.transition(ctx, domain.SessionStateAttempting)
	case metadata.StatusEnded:
		s.log.Info("Video is no longer live")
		s.transition(ctx, domain.SessionStateCompleted)
	case metadata.StatusUpcoming:
		s.log.Error("Download attempt finished but video is not live yet")
		s.transition(ctx, domain.SessionStateAttempting)
	default:
		s.log.Error("Metadata source returned unexpected status", "status", status)
		s.transition(ctx, domain.SessionStateFatal)
	}
}

func (s *Session) transition(ctx context.Context, to domain.SessionState) {
	from := s.state
	s.state = to
	s.history = append(s.history, to)
	s.log.Debug("Session transition", "from", from, "to", to)

	if s.deps.Repo == nil {
		return
	}
	if err := s.deps.Repo.UpdateState(ctx, s.spec.ID, to, s.attempts, s.lastError); err != nil {
		s.log.Warn("Failed to journal session transition", "error", err)
	}
}

func (s *Session) finish(ctx context.Context) {
	metrics.SessionsFinishedTotal.WithLabelValues(string(s.state)).Inc()

	switch s.state {
	case domain.SessionStateCompleted:
		s.log.Info("Capture session completed", "attempts", s.attempts)
	case domain.SessionStateInterrupted:
		s.log.Warn("Capture session interrupted", "attempts", s.attempts)
	default:
		s.log.Error("Capture session ended", "state", s.state, "attempts", s.attempts, "last_error", s.lastError)
	}

	if s.deps.Repo == nil {
		return
	}
	// The run context may already be cancelled on shutdown.
	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.deps.Repo.Finish(journalCtx, s.spec.ID, s.state, s.lastError); err != nil {
		s.log.Warn("Failed to journal session result", "error", err)
	}
}
