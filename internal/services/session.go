package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
)

// SessionService owns the check-in / heartbeat / check-out transitions.
// The single-open-session-per-(user, course) guarantee lives in the store's
// atomic GetOrCreateOpen, not here.
type SessionService struct {
	sessions repository.SessionStore
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionStore) *SessionService {
	return &SessionService{sessions: sessions, now: time.Now}
}

type CheckInResult struct {
	Session     *models.Session `json:"session"`
	AlreadyOpen bool            `json:"already_open"`
}

func (s *SessionService) CheckIn(ctx context.Context, tenantID string, userID, courseID uuid.UUID, source string) (*CheckInResult, error) {
	fieldErrors := make(map[string]string)
	if tenantID == "" {
		fieldErrors["tenant_id"] = "Tenant ID is required"
	}
	if userID == uuid.Nil {
		fieldErrors["user_id"] = "User ID is required"
	}
	if courseID == uuid.Nil {
		fieldErrors["course_id"] = "Course ID is required"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if source == "" {
		source = models.SessionSourceManual
	}

	session, alreadyOpen, err := s.sessions.GetOrCreateOpen(ctx, tenantID, userID, courseID, source, s.now().UTC())
	if err != nil {
		return nil, err
	}

	return &CheckInResult{Session: session, AlreadyOpen: alreadyOpen}, nil
}

func (s *SessionService) Get(ctx context.Context, tenantID string, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return session, err
}

func (s *SessionService) Heartbeat(ctx context.Context, tenantID string, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return err
	}

	if !session.Open() {
		return &InvalidStateError{Message: "Session is not open"}
	}

	err = s.sessions.UpdateHeartbeat(ctx, tenantID, sessionID, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		// Closed between the read and the update.
		return &InvalidStateError{Message: "Session is not open"}
	}
	return err
}

// CheckOut closes an open session. A nil at closes at the current time;
// source records who closed it and defaults to "manual".
func (s *SessionService) CheckOut(ctx context.Context, tenantID string, sessionID uuid.UUID, at *time.Time, source string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return nil, err
	}

	if !session.Open() {
		return nil, &InvalidStateError{Message: "Session is already closed"}
	}

	endedAt := s.now().UTC()
	if at != nil {
		endedAt = at.UTC()
	}
	if source == "" {
		source = models.SessionSourceManual
	}

	duration := durationSeconds(session.StartedAt, endedAt)
	err = s.sessions.Close(ctx, tenantID, sessionID, endedAt, duration, models.SessionStatusClosed, source)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &InvalidStateError{Message: "Session is already closed"}
	}
	if err != nil {
		return nil, err
	}

	session.EndedAt = &endedAt
	session.DurationSeconds = duration
	session.Status = models.SessionStatusClosed
	session.Source = source
	return session, nil
}

// durationSeconds is whole seconds between start and end, never negative.
func durationSeconds(start, end time.Time) int {
	d := int(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
