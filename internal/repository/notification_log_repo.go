package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendance-backend/internal/models"
)

type NotificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) *NotificationLogRepo {
	return &NotificationLogRepo{pool: pool}
}

func (r *NotificationLogRepo) Append(ctx context.Context, entry *models.NotificationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_logs (id, tenant_id, session_id, user_id, course_id, type, channel, sent_at, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.TenantID, entry.SessionID, entry.UserID, entry.CourseID,
		entry.Type, entry.Channel, entry.SentAt, entry.Status, entry.Error)
	return err
}

func (r *NotificationLogRepo) LatestSentAt(ctx context.Context, tenantID string, sessionID uuid.UUID) (*time.Time, error) {
	var ts pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(sent_at) FROM notification_logs
		WHERE tenant_id = $1 AND session_id = $2 AND status = 'sent'
	`, tenantID, sessionID).Scan(&ts)
	if err != nil {
		return nil, err
	}

	if !ts.Valid {
		return nil, nil
	}

	t := ts.Time
	return &t, nil
}
