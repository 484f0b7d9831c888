package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendance-backend/internal/models"
)

type PolicyRepo struct {
	pool *pgxpool.Pool
}

func NewPolicyRepo(pool *pgxpool.Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

func (r *PolicyRepo) FindActive(ctx context.Context, tenantID, scope string, targetID *uuid.UUID) (*models.NotificationPolicy, error) {
	query := `
		SELECT id, tenant_id, scope, course_id, user_id, first_notify_after_min, repeat_interval_hours, max_repeat_days, active, created_at
		FROM notification_policies
		WHERE tenant_id = $1 AND scope = $2 AND active = TRUE`

	args := []interface{}{tenantID, scope}
	switch scope {
	case models.PolicyScopeCourse:
		query += ` AND course_id = $3`
		args = append(args, targetID)
	case models.PolicyScopeUser:
		query += ` AND user_id = $3`
		args = append(args, targetID)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	p := &models.NotificationPolicy{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.TenantID, &p.Scope, &p.CourseID, &p.UserID,
		&p.FirstNotifyAfterMin, &p.RepeatIntervalHours, &p.MaxRepeatDays, &p.Active, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
