package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PolicyScopeGlobal = "global"
	PolicyScopeCourse = "course"
	PolicyScopeUser   = "user"
)

// NotificationPolicy configures the reminder cadence for forgotten
// check-outs. CourseID/UserID are populated only for the matching scope.
type NotificationPolicy struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	Scope               string     `json:"scope"`
	CourseID            *uuid.UUID `json:"course_id,omitempty"`
	UserID              *uuid.UUID `json:"user_id,omitempty"`
	FirstNotifyAfterMin int        `json:"first_notify_after_min"`
	RepeatIntervalHours int        `json:"repeat_interval_hours"`
	MaxRepeatDays       int        `json:"max_repeat_days"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// DefaultNotificationPolicy applies when no stored policy matches a
// user/course pair.
func DefaultNotificationPolicy(tenantID string) *NotificationPolicy {
	return &NotificationPolicy{
		ID:                  "default",
		TenantID:            tenantID,
		Scope:               PolicyScopeGlobal,
		FirstNotifyAfterMin: 60,
		RepeatIntervalHours: 24,
		MaxRepeatDays:       7,
		Active:              true,
	}
}
