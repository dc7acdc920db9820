package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/infra/storage"
)

// SessionRepo implements storage.SessionRepository using PostgreSQL.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new PostgreSQL session repository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionRow struct {
	ID         string       `db:"id"`
	RecordID   string       `db:"record_id"`
	Target     string       `db:"target"`
	Rule       string       `db:"rule"`
	State      string       `db:"state"`
	Attempts   int          `db:"attempts"`
	LastError  string       `db:"last_error"`
	StartedAt  time.Time    `db:"started_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

func (r sessionRow) toDomain() *domain.SessionRecord {
	s := &domain.SessionRecord{
		ID:        r.ID,
		RecordID:  r.RecordID,
		Target:    r.Target,
		Rule:      r.Rule,
		State:     domain.SessionState(r.State),
		Attempts:  r.Attempts,
		LastError: r.LastError,
		StartedAt: r.StartedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.FinishedAt.Valid {
		finished := r.FinishedAt.Time
		s.FinishedAt = &finished
	}
	return s
}

const sessionColumns = `id, record_id, target, rule, state, attempts, last_error, started_at, updated_at, finished_at`

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.SessionRecord) error {
	query := `
		INSERT INTO capture_sessions (id, record_id, target, rule, state, attempts, last_error, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	startedAt := s.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err := r.db.ExecContext(
		ctx,
		query,
		s.ID,
		s.RecordID,
		s.Target,
		s.Rule,
		string(s.State),
		s.Attempts,
		s.LastError,
		startedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// UpdateState records a transition.
func (r *SessionRepo) UpdateState(
	ctx context.Context,
	id string,
	state domain.SessionState,
	attempts int,
	lastError string,
) error {
	query := `
		UPDATE capture_sessions
		SET state = $2, attempts = $3, last_error = COALESCE(NULLIF($4::text, ''), last_error), updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, string(state), attempts, lastError)
}

// Finish marks a session terminal.
func (r *SessionRepo) Finish(
	ctx context.Context,
	id string,
	state domain.SessionState,
	lastError string,
) error {
	query := `
		UPDATE capture_sessions
		SET state = $2, last_error = COALESCE(NULLIF($3::text, ''), last_error), updated_at = NOW(), finished_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, string(state), lastError)
}

func (r *SessionRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// Get retrieves a session by id.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM capture_sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toDomain(), nil
}

// ListRecent returns the newest sessions first.
func (r *SessionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []sessionRow
	query := `SELECT ` + sessionColumns + ` FROM capture_sessions ORDER BY started_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	result := make([]*domain.SessionRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// CountByState aggregates sessions per state.
func (r *SessionRepo) CountByState(ctx context.Context) (map[domain.SessionState]int, error) {
	var rows []struct {
		State string `db:"state"`
		Count int    `db:"count"`
	}
	query := `SELECT state, COUNT(*) AS count FROM capture_sessions GROUP BY state`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	counts := make(map[domain.SessionState]int, len(rows))
	for _, row := range rows {
		counts[domain.SessionState(row.State)] = row.Count
	}
	return counts, nil
}
