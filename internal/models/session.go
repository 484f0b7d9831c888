package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusOpen     = "open"
	SessionStatusClosed   = "closed"
	SessionStatusAdjusted = "adjusted"
)

const (
	SessionSourceManual      = "manual"
	SessionSourceVideo       = "video"
	SessionSourceTest        = "test"
	SessionSourceReports     = "reports"
	SessionSourceAutoExpired = "auto_expired"
)

// Session is one attendance interval: open while the learner is present,
// closed (or adjusted) once ended. At most one open session exists per
// (tenant, user, course) — enforced by the session store.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        string     `json:"tenant_id"`
	UserID          uuid.UUID  `json:"user_id"`
	CourseID        uuid.UUID  `json:"course_id"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	LastHeartbeatAt time.Time  `json:"last_heartbeat_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Open reports whether the session is still running.
func (s *Session) Open() bool {
	return s.Status == SessionStatusOpen
}
