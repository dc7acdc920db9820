package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/discovery/poller"
	"github.com/vietddude/akashic/internal/infra/storage/memory"
)

// =============================================================================
// Mocks
// =============================================================================

type stubPoll struct {
	stats    poller.Stats
	interval time.Duration
}

func (s *stubPoll) Stats() poller.Stats     { return s.stats }
func (s *stubPoll) Interval() time.Duration { return s.interval }

type stubCounter struct {
	n       int
	targets []string
}

func (s stubCounter) Active() int        { return s.n }
func (s stubCounter) Size() int          { return s.n }
func (s stubCounter) Targets() []string { return s.targets }

func newTestMonitor(lastSuccess time.Time, now time.Time) *Monitor {
	m := NewMonitor(
		&stubPoll{stats: poller.Stats{LastSuccess: lastSuccess}, interval: 2 * time.Minute},
		stubCounter{n: 3, targets: []string{"abc", "https://www.twitch.tv/someone"}},
		stubCounter{n: 7},
		nil,
	)
	m.now = func() time.Time { return now }
	return m
}

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Status(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want SystemStatus
	}{
		{"fresh", time.Minute, StatusHealthy},
		{"three intervals", 6 * time.Minute, StatusHealthy},
		{"stale", 10 * time.Minute, StatusDegraded},
		{"very stale", 30 * time.Minute, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newTestMonitor(now.Add(-tt.age), now).CheckHealth(context.Background())
			if report.SystemStatus != tt.want {
				t.Errorf("expected %s, got %s", tt.want, report.SystemStatus)
			}
		})
	}
}

func TestMonitor_NeverPolled(t *testing.T) {
	m := newTestMonitor(time.Time{}, time.Now())
	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy during startup, got %s", report.SystemStatus)
	}
	if report.LastPollAge != "never" {
		t.Errorf("expected never, got %q", report.LastPollAge)
	}
	if report.ActiveSessions != 3 || report.SeenRecords != 7 {
		t.Errorf("expected counters 3/7, got %d/%d", report.ActiveSessions, report.SeenRecords)
	}
}

func TestMonitor_SessionsByState(t *testing.T) {
	repo := memory.NewSessionRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.SessionRecord{ID: "a", State: domain.SessionStateCompleted})
	_ = repo.Create(ctx, &domain.SessionRecord{ID: "b", State: domain.SessionStateFatal})
	_ = repo.Create(ctx, &domain.SessionRecord{ID: "c", State: domain.SessionStateFatal})

	m := NewMonitor(&stubPoll{interval: time.Minute}, stubCounter{}, nil, repo)
	report := m.CheckHealth(ctx)

	if report.SessionsByState["fatal"] != 2 {
		t.Errorf("expected 2 fatal, got %d", report.SessionsByState["fatal"])
	}
	if report.SessionsByState["completed"] != 1 {
		t.Errorf("expected 1 completed, got %d", report.SessionsByState["completed"])
	}
}

func TestServer_Health(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		age  time.Duration
		code int
	}{
		{"healthy", time.Minute, http.StatusOK},
		{"degraded", 10 * time.Minute, http.StatusOK},
		{"critical", time.Hour, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(newTestMonitor(now.Add(-tt.age), now), 0)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.name {
				t.Errorf("expected status %s, got %s", tt.name, body["status"])
			}
		})
	}
}

func TestServer_Detailed(t *testing.T) {
	now := time.Now()
	srv := NewServer(newTestMonitor(now.Add(-time.Minute), now), 0)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.ActiveSessions != 3 {
		t.Errorf("expected 3 active sessions, got %d", report.ActiveSessions)
	}
	if report.LastPollAge == "" {
		t.Error("expected last poll age")
	}
	if len(report.ActiveTargets) != 2 || report.ActiveTargets[0] != "abc" {
		t.Errorf("expected active targets in report, got %v", report.ActiveTargets)
	}
}

func TestGRPCServer_Sync(t *testing.T) {
	now := time.Now()
	g := NewGRPCServer(newTestMonitor(now.Add(-time.Hour), now), 0)

	if got := g.Sync(context.Background()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %s", got)
	}

	resp, err := g.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %s", resp.Status)
	}
}
