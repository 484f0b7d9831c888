package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
)

// CheckOutMailer dispatches the forgotten-check-out reminder. Satisfied by
// EmailService.
type CheckOutMailer interface {
	SendCheckOutReminderEmail(to, fullName, courseName string, elapsed time.Duration, requiredWatchMin int, courseID, sessionID uuid.UUID) error
}

// Per-session outcome of one reminder attempt.
const (
	ReminderOutcomeSent    = "sent"
	ReminderOutcomeSkipped = "skipped"
	ReminderOutcomeFailed  = "failed"
)

const (
	SkipReasonUserMissing   = "user_missing"
	SkipReasonEmailMissing  = "email_missing"
	SkipReasonDisabled      = "notifications_disabled"
	SkipReasonCourseMissing = "course_missing"
)

type ReminderOutcome struct {
	Status string
	Reason string
	Err    error
}

// ReminderService decides whether a stale session is due a reminder and, if
// so, composes, sends and logs it.
type ReminderService struct {
	logs    repository.NotificationLogStore
	users   repository.UserStore
	courses repository.CourseStore
	mailer  CheckOutMailer
	now     func() time.Time
}

func NewReminderService(logs repository.NotificationLogStore, users repository.UserStore, courses repository.CourseStore, mailer CheckOutMailer) *ReminderService {
	return &ReminderService{
		logs:    logs,
		users:   users,
		courses: courses,
		mailer:  mailer,
		now:     time.Now,
	}
}

// ShouldSend applies the throttle window for one session. Only status=sent
// log rows gate it: a prior failed attempt never blocks a retry.
func (s *ReminderService) ShouldSend(ctx context.Context, tenantID string, sessionID uuid.UUID, startedAt time.Time, policy *models.NotificationPolicy) (bool, error) {
	lastSentAt, err := s.logs.LatestSentAt(ctx, tenantID, sessionID)
	if err != nil {
		return false, err
	}
	return shouldSendReminder(lastSentAt, startedAt, policy.RepeatIntervalHours, policy.MaxRepeatDays, s.now().UTC()), nil
}

func shouldSendReminder(lastSentAt *time.Time, startedAt time.Time, repeatIntervalHours, maxRepeatDays int, now time.Time) bool {
	if lastSentAt == nil {
		// First reminder always fires once the session is eligible.
		return true
	}
	if now.Sub(*lastSentAt) < time.Duration(repeatIntervalHours)*time.Hour {
		return false
	}
	if now.Sub(startedAt) > time.Duration(maxRepeatDays)*24*time.Hour {
		// Escalation window expired; stop nagging.
		return false
	}
	return true
}

// Send resolves the recipient, dispatches the reminder and appends a log
// row. Skips (missing user, missing email, notifications disabled) write no
// log row. Delivery is at-most-once per policy window, not exactly-once: if
// the mail goes out but the log append fails, the next pass may send again.
func (s *ReminderService) Send(ctx context.Context, session *models.Session) ReminderOutcome {
	user, err := s.users.GetByID(ctx, session.TenantID, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return ReminderOutcome{Status: ReminderOutcomeSkipped, Reason: SkipReasonUserMissing}
	}
	if err != nil {
		return ReminderOutcome{Status: ReminderOutcomeFailed, Err: err}
	}
	if user.Email == "" {
		return ReminderOutcome{Status: ReminderOutcomeSkipped, Reason: SkipReasonEmailMissing}
	}

	settings, err := s.users.GetSettings(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ReminderOutcome{Status: ReminderOutcomeFailed, Err: err}
	}
	// No settings row means notifications were never turned off.
	if settings != nil && !settings.NotificationEnabled {
		return ReminderOutcome{Status: ReminderOutcomeSkipped, Reason: SkipReasonDisabled}
	}

	course, err := s.courses.GetByID(ctx, session.TenantID, session.CourseID)
	if errors.Is(err, repository.ErrNotFound) {
		return ReminderOutcome{Status: ReminderOutcomeSkipped, Reason: SkipReasonCourseMissing}
	}
	if err != nil {
		return ReminderOutcome{Status: ReminderOutcomeFailed, Err: err}
	}

	now := s.now().UTC()
	elapsed := now.Sub(session.StartedAt)

	sendErr := s.mailer.SendCheckOutReminderEmail(
		user.Email, user.FullName, course.Name, elapsed, course.RequiredWatchMin, course.ID, session.ID,
	)

	entry := &models.NotificationLog{
		TenantID:  session.TenantID,
		SessionID: session.ID,
		UserID:    session.UserID,
		CourseID:  session.CourseID,
		Type:      models.NotificationTypeOutMissing,
		Channel:   models.NotificationChannelEmail,
		SentAt:    now,
		Status:    models.NotificationStatusSent,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = models.NotificationStatusFailed
		entry.Error = &msg
	}

	if logErr := s.logs.Append(ctx, entry); logErr != nil {
		log.Printf("reminder: failed to append notification log for session %s: %v", session.ID, logErr)
		if sendErr == nil {
			// Mail went out; report sent even though the window may re-open.
			return ReminderOutcome{Status: ReminderOutcomeSent}
		}
	}

	if sendErr != nil {
		return ReminderOutcome{Status: ReminderOutcomeFailed, Err: sendErr}
	}
	return ReminderOutcome{Status: ReminderOutcomeSent}
}
