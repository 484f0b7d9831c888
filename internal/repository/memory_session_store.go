package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
)

// MemorySessionStore backs the session state machine when no database is
// configured, and the service tests. The mutex makes GetOrCreateOpen atomic,
// mirroring what the partial unique index guarantees in Postgres.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (r *MemorySessionStore) GetOrCreateOpen(ctx context.Context, tenantID string, userID, courseID uuid.UUID, source string, now time.Time) (*models.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.UserID == userID && s.CourseID == courseID && s.Status == models.SessionStatusOpen {
			copy := *s
			return &copy, true, nil
		}
	}

	s := &models.Session{
		ID:              uuid.New(),
		TenantID:        tenantID,
		UserID:          userID,
		CourseID:        courseID,
		Status:          models.SessionStatusOpen,
		Source:          source,
		StartedAt:       now,
		LastHeartbeatAt: now,
		CreatedAt:       now,
	}
	r.sessions[s.ID] = s

	copy := *s
	return &copy, false, nil
}

func (r *MemorySessionStore) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, ErrNotFound
	}

	copy := *s
	return &copy, nil
}

func (r *MemorySessionStore) UpdateHeartbeat(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID || s.Status != models.SessionStatusOpen {
		return ErrNotFound
	}

	s.LastHeartbeatAt = at
	return nil
}

func (r *MemorySessionStore) Close(ctx context.Context, tenantID string, id uuid.UUID, endedAt time.Time, durationSeconds int, status, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID || s.Status != models.SessionStatusOpen {
		return ErrNotFound
	}

	ended := endedAt
	s.EndedAt = &ended
	s.DurationSeconds = durationSeconds
	s.Status = status
	s.Source = source
	return nil
}

func (r *MemorySessionStore) ListOpenStartedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error) {
	return r.listOpen(tenantID, limit,
		func(s *models.Session) bool { return s.StartedAt.Before(cutoff) },
		func(a, b *models.Session) bool { return a.StartedAt.Before(b.StartedAt) },
	)
}

func (r *MemorySessionStore) ListOpenHeartbeatBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*models.Session, error) {
	return r.listOpen(tenantID, limit,
		func(s *models.Session) bool { return s.LastHeartbeatAt.Before(cutoff) },
		func(a, b *models.Session) bool { return a.LastHeartbeatAt.Before(b.LastHeartbeatAt) },
	)
}

func (r *MemorySessionStore) listOpen(tenantID string, limit int, match func(*models.Session) bool, less func(a, b *models.Session) bool) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Session, 0)
	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.Status == models.SessionStatusOpen && match(s) {
			copy := *s
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
