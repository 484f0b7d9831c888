package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendance-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, tenant_id, user_id, course_id, status, source, started_at, last_heartbeat_at, ended_at, duration_seconds, created_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID, &s.TenantID, &s.UserID, &s.CourseID, &s.Status, &s.Source,
		&s.StartedAt, &s.LastHeartbeatAt, &s.EndedAt, &s.DurationSeconds, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetOrCreateOpen relies on the partial unique index
// sessions_one_open_per_pair (tenant_id, user_id, course_id) WHERE status =
// 'open': the insert either wins or conflicts, and on conflict the existing
// open session is read back. Two concurrent check-ins therefore observe the
// same session id.
func (r *SessionRepo) GetOrCreateOpen(ctx context.Context, tenantID string, userID, courseID uuid.UUID, source string, now time.Time) (*models.Session, bool, error) {
	insert := fmt.Sprintf(`
		INSERT INTO sessions (id, tenant_id, user_id, course_id, status, source, started_at, last_heartbeat_at, duration_seconds)
		VALUES ($1, $2, $3, $4, 'open', $5, $6, $6, 0)
		ON CONFLICT (tenant_id, user_id, course_id) WHERE status = 'open' DO NOTHING
		RETURNING %s`, sessionColumns)

	selectOpen := fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE tenant_id = $1 AND user_id = $2 AND course_id = $3 AND status = 'open'`, sessionColumns)

	// The select can miss when the conflicting session is checked out
	// between the insert and the read, so loop back to the insert.
	for attempt := 0; attempt < 3; attempt++ {
		s, err := scanSession(r.pool.QueryRow(ctx, insert, uuid.New(), tenantID, userID, courseID, source, now))
		if err == nil {
			return s, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}

		s, err = scanSession(r.pool.QueryRow(ctx, selectOpen, tenantID, userID, courseID))
		if err == nil {
			return s, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	return nil, false, fmt.Errorf("get-or-create open session: retries exhausted for user %s course %s", userID, courseID)
}

func (r *SessionRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE tenant_id = $1 AND id = $2`, sessionColumns)
	return scanSession(r.pool.QueryRow(ctx, query, tenantID, id))
}

func (r *SessionRepo) UpdateHeartbeat(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET last_heartbeat_at = $3
		WHERE tenant_id = $1 AND id = $2 AND status = 'open'
	`, tenantID, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepo) Close(ctx context.Context, tenantID string, id uuid.UUID, endedAt time.Time, durationSeconds int, status, source string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET ended_at = $3, duration_seconds = $4, status = $5, source = $6
		WHERE tenant_id = $1 AND id = $2 AND status = 'open'
	`, tenantID, id, endedAt, durationSeconds, status, source)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepo) ListOpenStartedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE tenant_id = $1 AND status = 'open' AND started_at < $2
		ORDER BY started_at ASC
		LIMIT $3`, sessionColumns)
	return r.listSessions(ctx, query, tenantID, cutoff, limit)
}

func (r *SessionRepo) ListOpenHeartbeatBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE tenant_id = $1 AND status = 'open' AND last_heartbeat_at < $2
		ORDER BY last_heartbeat_at ASC
		LIMIT $3`, sessionColumns)
	return r.listSessions(ctx, query, tenantID, cutoff, limit)
}

func (r *SessionRepo) listSessions(ctx context.Context, query string, args ...interface{}) ([]*models.Session, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.UserID, &s.CourseID, &s.Status, &s.Source,
			&s.StartedAt, &s.LastHeartbeatAt, &s.EndedAt, &s.DurationSeconds, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
