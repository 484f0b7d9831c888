package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
)

func TestCheckIn_CreatesOpenSession(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, err := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	if result.AlreadyOpen {
		t.Error("Expected a fresh session, got already_open")
	}
	s := result.Session
	if s.Status != models.SessionStatusOpen {
		t.Errorf("Expected status open, got %q", s.Status)
	}
	if s.Source != models.SessionSourceManual {
		t.Errorf("Expected default source manual, got %q", s.Source)
	}
	if !s.StartedAt.Equal(start) || !s.LastHeartbeatAt.Equal(start) {
		t.Errorf("Expected started_at and last_heartbeat_at = %v, got %v / %v", start, s.StartedAt, s.LastHeartbeatAt)
	}
	if s.DurationSeconds != 0 || s.EndedAt != nil {
		t.Error("Open session must have zero duration and no end time")
	}
}

func TestCheckIn_ExistingOpenSessionReturnedUnchanged(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())
	userID, courseID := uuid.New(), uuid.New()

	first, err := svc.CheckIn(context.Background(), "acme", userID, courseID, "")
	if err != nil {
		t.Fatalf("first CheckIn failed: %v", err)
	}

	second, err := svc.CheckIn(context.Background(), "acme", userID, courseID, "")
	if err != nil {
		t.Fatalf("second CheckIn failed: %v", err)
	}

	if !second.AlreadyOpen {
		t.Error("Expected already_open on the second check-in")
	}
	if second.Session.ID != first.Session.ID {
		t.Errorf("Expected the same session id, got %s and %s", first.Session.ID, second.Session.ID)
	}
}

func TestCheckIn_ConcurrentCallersObserveOneSession(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())
	userID, courseID := uuid.New(), uuid.New()

	const callers = 32
	ids := make([]uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.CheckIn(context.Background(), "acme", userID, courseID, "")
			if err != nil {
				t.Errorf("concurrent CheckIn failed: %v", err)
				return
			}
			ids[i] = result.Session.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("Caller %d observed session %s, caller 0 observed %s", i, ids[i], ids[0])
		}
	}
}

func TestCheckIn_Validation(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())

	_, err := svc.CheckIn(context.Background(), "", uuid.Nil, uuid.New(), "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := vErr.Fields["tenant_id"]; !ok {
		t.Error("Expected tenant_id field error")
	}
	if _, ok := vErr.Fields["user_id"]; !ok {
		t.Error("Expected user_id field error")
	}
}

func TestHeartbeat_UpdatesTimestampOnly(t *testing.T) {
	store := repository.NewMemorySessionStore()
	svc := NewSessionService(store)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, _ := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")

	later := start.Add(5 * time.Minute)
	svc.now = func() time.Time { return later }
	if err := svc.Heartbeat(context.Background(), "acme", result.Session.ID); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}

	s, _ := store.GetByID(context.Background(), "acme", result.Session.ID)
	if !s.LastHeartbeatAt.Equal(later) {
		t.Errorf("Expected last_heartbeat_at %v, got %v", later, s.LastHeartbeatAt)
	}
	if s.Status != models.SessionStatusOpen || !s.StartedAt.Equal(start) {
		t.Error("Heartbeat must not change status or started_at")
	}
}

func TestHeartbeat_Errors(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())

	err := svc.Heartbeat(context.Background(), "acme", uuid.New())
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Expected NotFoundError for unknown session, got %v", err)
	}

	result, _ := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")
	if _, err := svc.CheckOut(context.Background(), "acme", result.Session.ID, nil, ""); err != nil {
		t.Fatalf("CheckOut failed: %v", err)
	}

	err = svc.Heartbeat(context.Background(), "acme", result.Session.ID)
	var isErr *InvalidStateError
	if !errors.As(err, &isErr) {
		t.Fatalf("Expected InvalidStateError for closed session, got %v", err)
	}
}

func TestCheckOut_DurationWholeSecondsNeverNegative(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, _ := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")

	at := start.Add(90*time.Minute + 750*time.Millisecond)
	session, err := svc.CheckOut(context.Background(), "acme", result.Session.ID, &at, models.SessionSourceVideo)
	if err != nil {
		t.Fatalf("CheckOut failed: %v", err)
	}

	if session.DurationSeconds != 90*60 {
		t.Errorf("Expected duration %d, got %d", 90*60, session.DurationSeconds)
	}
	if session.Status != models.SessionStatusClosed || session.Source != models.SessionSourceVideo {
		t.Errorf("Expected closed/video, got %s/%s", session.Status, session.Source)
	}
	if session.EndedAt == nil || !session.EndedAt.Equal(at) {
		t.Errorf("Expected ended_at %v, got %v", at, session.EndedAt)
	}

	// End before start clamps to zero.
	result2, _ := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")
	before := start.Add(-time.Hour)
	session2, err := svc.CheckOut(context.Background(), "acme", result2.Session.ID, &before, "")
	if err != nil {
		t.Fatalf("CheckOut failed: %v", err)
	}
	if session2.DurationSeconds != 0 {
		t.Errorf("Expected clamped duration 0, got %d", session2.DurationSeconds)
	}
}

func TestCheckOut_SecondCallIsInvalidState(t *testing.T) {
	svc := NewSessionService(repository.NewMemorySessionStore())

	result, _ := svc.CheckIn(context.Background(), "acme", uuid.New(), uuid.New(), "")
	if _, err := svc.CheckOut(context.Background(), "acme", result.Session.ID, nil, ""); err != nil {
		t.Fatalf("first CheckOut failed: %v", err)
	}

	_, err := svc.CheckOut(context.Background(), "acme", result.Session.ID, nil, "")
	var isErr *InvalidStateError
	if !errors.As(err, &isErr) {
		t.Fatalf("Expected InvalidStateError on second check-out, got %v", err)
	}
}

func TestDurationSeconds(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		end      time.Time
		expected int
	}{
		{"whole seconds", start.Add(61 * time.Second), 61},
		{"sub-second truncated", start.Add(61*time.Second + 999*time.Millisecond), 61},
		{"end before start", start.Add(-10 * time.Second), 0},
		{"zero", start, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := durationSeconds(start, tc.end); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}
