package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
)

type MemoryPolicyStore struct {
	mu       sync.RWMutex
	policies []*models.NotificationPolicy
}

func NewMemoryPolicyStore() *MemoryPolicyStore {
	return &MemoryPolicyStore{}
}

func (r *MemoryPolicyStore) Add(p *models.NotificationPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = append(r.policies, p)
}

func (r *MemoryPolicyStore) FindActive(ctx context.Context, tenantID, scope string, targetID *uuid.UUID) (*models.NotificationPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.policies {
		if p.TenantID != tenantID || p.Scope != scope || !p.Active {
			continue
		}
		switch scope {
		case models.PolicyScopeCourse:
			if p.CourseID == nil || targetID == nil || *p.CourseID != *targetID {
				continue
			}
		case models.PolicyScopeUser:
			if p.UserID == nil || targetID == nil || *p.UserID != *targetID {
				continue
			}
		}
		copy := *p
		return &copy, nil
	}

	return nil, ErrNotFound
}

type MemoryNotificationLogStore struct {
	mu      sync.RWMutex
	entries []*models.NotificationLog
}

func NewMemoryNotificationLogStore() *MemoryNotificationLogStore {
	return &MemoryNotificationLogStore{}
}

func (r *MemoryNotificationLogStore) Append(ctx context.Context, entry *models.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copy := *entry
	r.entries = append(r.entries, &copy)
	return nil
}

func (r *MemoryNotificationLogStore) LatestSentAt(ctx context.Context, tenantID string, sessionID uuid.UUID) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, e := range r.entries {
		if e.TenantID != tenantID || e.SessionID != sessionID || e.Status != models.NotificationStatusSent {
			continue
		}
		if latest == nil || e.SentAt.After(*latest) {
			t := e.SentAt
			latest = &t
		}
	}

	return latest, nil
}

// Entries returns a snapshot of the appended log rows.
func (r *MemoryNotificationLogStore) Entries() []models.NotificationLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.NotificationLog, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

type MemoryUserStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	settings map[uuid.UUID]*models.UserSettings
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:    make(map[uuid.UUID]*models.User),
		settings: make(map[uuid.UUID]*models.UserSettings),
	}
}

func (r *MemoryUserStore) Add(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *MemoryUserStore) AddSettings(s *models.UserSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.UserID] = s
}

func (r *MemoryUserStore) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *MemoryUserStore) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *s
	return &copy, nil
}

type MemoryCourseStore struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]*models.Course
}

func NewMemoryCourseStore() *MemoryCourseStore {
	return &MemoryCourseStore{courses: make(map[uuid.UUID]*models.Course)}
}

func (r *MemoryCourseStore) Add(c *models.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
}

func (r *MemoryCourseStore) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	copy := *c
	return &copy, nil
}

type MemoryTenantStore struct {
	mu      sync.RWMutex
	tenants []models.Tenant
}

func NewMemoryTenantStore(tenants ...models.Tenant) *MemoryTenantStore {
	return &MemoryTenantStore{tenants: tenants}
}

func (r *MemoryTenantStore) Add(t models.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = append(r.tenants, t)
}

func (r *MemoryTenantStore) ListActive(ctx context.Context) ([]models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]models.Tenant, 0)
	for _, t := range r.tenants {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}
