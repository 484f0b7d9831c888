package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a read-only input to the notification path. RequiredWatchMin is
// the course's required watch time, quoted in the reminder email.
type Course struct {
	ID               uuid.UUID `json:"id"`
	TenantID         string    `json:"tenant_id"`
	Name             string    `json:"name"`
	RequiredWatchMin int       `json:"required_watch_min"`
	CreatedAt        time.Time `json:"created_at"`
}

// Tenant is one isolated organizational partition. Reconcile iterates the
// active tenants independently.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
