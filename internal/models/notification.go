package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeOutMissing = "out_missing"
	NotificationChannelEmail   = "email"
)

const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationLog is one row per attempted reminder send. Only rows with
// status=sent count toward throttle decisions; a failed attempt leaves the
// session eligible for retry on the next reconcile pass.
type NotificationLog struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sent_at"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
}

// RunReport aggregates the outcome of one reconcile pass for a tenant.
type RunReport struct {
	TenantID   string   `json:"tenant_id"`
	AutoClosed int      `json:"auto_closed"`
	Processed  int      `json:"processed"`
	Sent       int      `json:"sent"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}
