package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no row. Callers decide
// whether that is an error worth surfacing or part of normal flow.
var ErrNotFound = errors.New("record not found")

type SessionStore interface {
	// GetOrCreateOpen returns the open session for the (tenant, user,
	// course) pair, creating it when none exists. The boolean reports
	// whether an existing session was reused.
	GetOrCreateOpen(ctx context.Context, tenantID string, userID, courseID uuid.UUID, source string, now time.Time) (*models.Session, bool, error)
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Session, error)
	UpdateHeartbeat(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) error
	Close(ctx context.Context, tenantID string, id uuid.UUID, endedAt time.Time, durationSeconds int, status, source string) error
	ListOpenStartedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error)
	ListOpenHeartbeatBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error)
}

type PolicyStore interface {
	// FindActive returns the active policy for the scope, narrowed to
	// targetID for course and user scopes. targetID is nil for global.
	FindActive(ctx context.Context, tenantID, scope string, targetID *uuid.UUID) (*models.NotificationPolicy, error)
}

type NotificationLogStore interface {
	Append(ctx context.Context, entry *models.NotificationLog) error
	// LatestSentAt returns the most recent sent_at among entries with
	// status "sent" for the session, or nil when none exist.
	LatestSentAt(ctx context.Context, tenantID string, sessionID uuid.UUID) (*time.Time, error)
}

type UserStore interface {
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
}

type CourseStore interface {
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Course, error)
}

type TenantStore interface {
	ListActive(ctx context.Context) ([]models.Tenant, error)
}

var (
	_ SessionStore         = (*SessionRepo)(nil)
	_ SessionStore         = (*MemorySessionStore)(nil)
	_ PolicyStore          = (*PolicyRepo)(nil)
	_ PolicyStore          = (*MemoryPolicyStore)(nil)
	_ NotificationLogStore = (*NotificationLogRepo)(nil)
	_ NotificationLogStore = (*MemoryNotificationLogStore)(nil)
	_ UserStore            = (*UserRepo)(nil)
	_ UserStore            = (*MemoryUserStore)(nil)
	_ CourseStore          = (*CourseRepo)(nil)
	_ CourseStore          = (*MemoryCourseStore)(nil)
	_ TenantStore          = (*TenantRepo)(nil)
	_ TenantStore          = (*MemoryTenantStore)(nil)
)
