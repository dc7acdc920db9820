package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vietddude/akashic/internal/discovery/poller"
	"github.com/vietddude/akashic/internal/infra/storage"
)

// PollSource reports poll progress.
type PollSource interface {
	Stats() poller.Stats
	Interval() time.Duration
}

// Counter reports running sessions.
type Counter interface {
	Active() int
	Targets() []string
}

// SizeCounter reports the size of a set.
type SizeCounter interface {
	Size() int
}

// Monitor aggregates health status from the poller and session manager.
type Monitor struct {
	poll     PollSource
	sessions Counter
	seen     SizeCounter
	repo     storage.SessionRepository

	startedAt  time.Time
	now        func() time.Time
	lastCheck  time.Time
	lastReport Report
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. seen and repo may be nil.
func NewMonitor(
	poll PollSource,
	sessions Counter,
	seen SizeCounter,
	repo storage.SessionRepository,
) *Monitor {
	return &Monitor{
		poll:      poll,
		sessions:  sessions,
		seen:      seen,
		repo:      repo,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// CheckHealth builds a report. Results are cached for a few seconds so the
// journal isn't queried on every probe.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !m.lastCheck.IsZero() && now.Sub(m.lastCheck) < 5*time.Second {
		return m.lastReport
	}

	stats := m.poll.Stats()
	report := Report{
		LastPoll:            stats.LastSuccess,
		ConsecutiveFailures: stats.ConsecutiveFailures,
		LastRecordCount:     stats.LastRecordCount,
		ActiveSessions:      m.sessions.Active(),
		ActiveTargets:       m.sessions.Targets(),
	}
	if m.seen != nil {
		report.SeenRecords = m.seen.Size()
	}

	// Before the first successful poll, measure from process start.
	since := m.startedAt
	if !stats.LastSuccess.IsZero() {
		since = stats.LastSuccess
		report.LastPollAge = humanize.RelTime(stats.LastSuccess, now, "ago", "from now")
	} else {
		report.LastPollAge = "never"
	}
	report.SystemStatus = evaluate(now.Sub(since), m.poll.Interval())

	if m.repo != nil {
		counts, err := m.repo.CountByState(ctx)
		if err != nil {
			slog.Warn("Failed to count sessions by state", "error", err)
		} else {
			report.SessionsByState = make(map[string]int, len(counts))
			for state, n := range counts {
				report.SessionsByState[string(state)] = n
			}
		}
	}

	m.lastCheck = now
	m.lastReport = report
	return report
}

func evaluate(age, interval time.Duration) SystemStatus {
	switch {
	case age <= 3*interval:
		return StatusHealthy
	case age <= 10*interval:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
