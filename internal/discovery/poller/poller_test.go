package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
)

// ============================================================================
// Mocks
// ============================================================================

type flakySource struct {
	mu       sync.Mutex
	failures int
	calls    int
	records  []domain.FeedRecord
}

func (s *flakySource) Live(ctx context.Context) ([]domain.FeedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("feed returned 503")
	}
	return s.records, nil
}

func (s *flakySource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]domain.FeedRecord
	notify  chan struct{}
}

func (h *recordingHandler) Dispatch(ctx context.Context, records []domain.FeedRecord) int {
	h.mu.Lock()
	h.batches = append(h.batches, records)
	h.mu.Unlock()
	select {
	case h.notify <- struct{}{}:
	default:
	}
	return len(records)
}

// ============================================================================
// Tests
// ============================================================================

func TestPollOnce_Stats(t *testing.T) {
	src := &flakySource{failures: 1, records: []domain.FeedRecord{{ID: "a"}, {ID: "b"}}}
	p := New(src, &recordingHandler{}, Config{})

	if _, err := p.PollOnce(context.Background()); err == nil {
		t.Fatal("expected first poll to fail")
	}
	if got := p.Stats().ConsecutiveFailures; got != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", got)
	}

	records, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	st := p.Stats()
	if st.ConsecutiveFailures != 0 {
		t.Errorf("expected failures reset, got %d", st.ConsecutiveFailures)
	}
	if st.LastSuccess.IsZero() {
		t.Error("expected last success to be set")
	}
	if st.LastRecordCount != 2 {
		t.Errorf("expected last record count 2, got %d", st.LastRecordCount)
	}
}

func TestRun_RetriesUntilSuccess(t *testing.T) {
	src := &flakySource{failures: 3, records: []domain.FeedRecord{{ID: "a"}}}
	h := &recordingHandler{notify: make(chan struct{}, 1)}
	p := New(src, h, Config{Interval: time.Hour, RetryInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-h.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("expected nil error on shutdown, got %v", err)
	}
	if src.Calls() != 4 {
		t.Errorf("expected 4 calls, got %d", src.Calls())
	}
	if p.Stats().Dispatched != 1 {
		t.Errorf("expected 1 dispatched, got %d", p.Stats().Dispatched)
	}
}

func TestRun_NeverSurfacesFeedErrors(t *testing.T) {
	src := &flakySource{failures: 1 << 30}
	p := New(src, &recordingHandler{}, Config{RetryInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if src.Calls() < 2 {
		t.Errorf("expected repeated attempts, got %d", src.Calls())
	}
}

func TestRun_PollsOnInterval(t *testing.T) {
	src := &flakySource{records: []domain.FeedRecord{{ID: "a"}}}
	h := &recordingHandler{notify: make(chan struct{}, 1)}
	p := New(src, h, Config{Interval: 5 * time.Millisecond, RetryInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-h.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for poll %d", i+1)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&flakySource{}, &recordingHandler{}, Config{})
	if p.Interval() != DefaultInterval {
		t.Errorf("expected %v, got %v", DefaultInterval, p.Interval())
	}
	if p.cfg.RetryInterval != DefaultRetryInterval {
		t.Errorf("expected %v, got %v", DefaultRetryInterval, p.cfg.RetryInterval)
	}
}
