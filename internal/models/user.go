package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a read-only input to the notification path; account management
// lives outside this service.
type User struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserSettings struct {
	UserID              uuid.UUID `json:"user_id"`
	NotificationEnabled bool      `json:"notification_enabled"`
	Timezone            string    `json:"timezone"`
	UpdatedAt           time.Time `json:"updated_at"`
}
