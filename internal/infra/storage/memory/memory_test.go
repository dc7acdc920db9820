package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/infra/storage"
)

func TestSessionRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	if err := repo.Create(ctx, &domain.SessionRecord{
		ID:       "s1",
		RecordID: "A",
		Target:   "CAbEy8xAKSE",
		State:    domain.SessionStateAttempting,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateState(ctx, "s1", domain.SessionStateBackoff, 1, "begin in 10 minutes."); err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}
	if err := repo.Finish(ctx, "s1", domain.SessionStateCompleted, ""); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	s, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.State != domain.SessionStateCompleted || s.Attempts != 1 {
		t.Errorf("unexpected session: %+v", s)
	}
	if s.LastError != "begin in 10 minutes." {
		t.Errorf("last error should be kept, got %q", s.LastError)
	}
	if s.FinishedAt == nil {
		t.Error("expected FinishedAt to be set")
	}
}

func TestSessionRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	if err := repo.UpdateState(ctx, "nope", domain.SessionStateFatal, 0, ""); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepo_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		_ = repo.Create(ctx, &domain.SessionRecord{
			ID:        id,
			State:     domain.SessionStateAttempting,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = repo.Finish(ctx, "old", domain.SessionStateFatal, "glitch")

	recent, _ := repo.ListRecent(ctx, 2)
	if len(recent) != 2 || recent[0].ID != "new" || recent[1].ID != "mid" {
		t.Errorf("unexpected order: %v, %v", recent[0].ID, recent[1].ID)
	}

	counts, _ := repo.CountByState(ctx)
	if counts[domain.SessionStateAttempting] != 2 || counts[domain.SessionStateFatal] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
