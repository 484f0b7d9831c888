package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
)

// ErrReconcileRunning is returned when a reconcile pass for the tenant is
// already in flight (either in this process or, via the redis lock, in
// another instance).
var ErrReconcileRunning = errors.New("reconcile already running for tenant")

const reconcileLockTTL = 10 * time.Minute

type ReconcileConfig struct {
	StaleAfter         time.Duration
	StaleBatchSize     int
	AutoCloseAfter     time.Duration
	AutoCloseBatchSize int
}

func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		StaleAfter:         30 * time.Minute,
		StaleBatchSize:     100,
		AutoCloseAfter:     48 * time.Hour,
		AutoCloseBatchSize: 50,
	}
}

// ReconcileService is the scheduled entry point: per tenant it force-closes
// long-abandoned sessions, then scans stale ones and sends throttled
// reminders. Each invocation re-reads all state; nothing is cached across
// passes.
type ReconcileService struct {
	sessions repository.SessionStore
	tenants  repository.TenantStore
	resolver *PolicyResolver
	reminder *ReminderService
	redis    *redis.Client // nil disables the cross-process lock
	cfg      ReconcileConfig
	now      func() time.Time

	inFlight sync.Map
}

func NewReconcileService(
	sessions repository.SessionStore,
	tenants repository.TenantStore,
	resolver *PolicyResolver,
	reminder *ReminderService,
	redisClient *redis.Client,
	cfg ReconcileConfig,
) *ReconcileService {
	return &ReconcileService{
		sessions: sessions,
		tenants:  tenants,
		resolver: resolver,
		reminder: reminder,
		redis:    redisClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RunAll reconciles every active tenant sequentially. A failure in one
// tenant never stops the others.
func (s *ReconcileService) RunAll(ctx context.Context) []*models.RunReport {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		log.Printf("reconcile: failed to list active tenants: %v", err)
		return nil
	}

	reports := make([]*models.RunReport, 0, len(tenants))
	for _, tenant := range tenants {
		report, err := s.Run(ctx, tenant.ID)
		if errors.Is(err, ErrReconcileRunning) {
			log.Printf("reconcile: tenant %s already running, skipped", tenant.ID)
			continue
		}
		if err != nil {
			log.Printf("reconcile: tenant %s failed: %v", tenant.ID, err)
			continue
		}
		reports = append(reports, report)
	}

	return reports
}

// Run reconciles one tenant: auto-close runs to completion before the
// staleness scan, so a session that just became eligible for auto-close is
// not also reminded in the same pass.
func (s *ReconcileService) Run(ctx context.Context, tenantID string) (*models.RunReport, error) {
	if tenantID == "" {
		return nil, &ValidationError{Fields: map[string]string{"tenant_id": "Tenant ID is required"}}
	}

	if _, loaded := s.inFlight.LoadOrStore(tenantID, struct{}{}); loaded {
		return nil, ErrReconcileRunning
	}
	defer s.inFlight.Delete(tenantID)

	unlock, err := s.acquireLock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := s.now()
	report := &models.RunReport{TenantID: tenantID, Errors: []string{}}

	s.autoClose(ctx, tenantID, report)
	s.remindStale(ctx, tenantID, report)

	report.ElapsedMS = time.Since(started).Milliseconds()
	log.Printf("reconcile: tenant %s done: auto-closed=%d processed=%d sent=%d skipped=%d failed=%d errors=%d",
		tenantID, report.AutoClosed, report.Processed, report.Sent, report.Skipped, report.Failed, len(report.Errors))
	return report, nil
}

// autoClose force-closes open sessions older than the absolute age cutoff.
// The session started exactly at the cutoff is not eligible; only strictly
// older ones are. End time is the last heartbeat, not the sweep time, so
// recorded duration reflects observed activity regardless of sweep latency.
func (s *ReconcileService) autoClose(ctx context.Context, tenantID string, report *models.RunReport) {
	cutoff := s.now().UTC().Add(-s.cfg.AutoCloseAfter)
	sessions, err := s.sessions.ListOpenStartedBefore(ctx, tenantID, cutoff, s.cfg.AutoCloseBatchSize)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("auto-close query: %v", err))
		return
	}

	for _, session := range sessions {
		endedAt := session.LastHeartbeatAt
		duration := durationSeconds(session.StartedAt, endedAt)
		err := s.sessions.Close(ctx, tenantID, session.ID, endedAt, duration, models.SessionStatusClosed, models.SessionSourceAutoExpired)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			// One bad record must not block the rest of the batch.
			report.Errors = append(report.Errors, fmt.Sprintf("auto-close session %s: %v", session.ID, err))
			continue
		}
		report.AutoClosed++
	}
}

// remindStale scans open sessions whose heartbeat is strictly older than the
// scan threshold (a wide net; the per-policy gates are applied afterwards)
// and sends due reminders.
func (s *ReconcileService) remindStale(ctx context.Context, tenantID string, report *models.RunReport) {
	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.StaleAfter)
	sessions, err := s.sessions.ListOpenHeartbeatBefore(ctx, tenantID, cutoff, s.cfg.StaleBatchSize)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("staleness query: %v", err))
		return
	}

	for _, session := range sessions {
		report.Processed++

		policy, err := s.resolver.Resolve(ctx, tenantID, session.UserID, session.CourseID)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("resolve policy for session %s: %v", session.ID, err))
			continue
		}

		if now.Sub(session.LastHeartbeatAt) < time.Duration(policy.FirstNotifyAfterMin)*time.Minute {
			report.Skipped++
			continue
		}

		due, err := s.reminder.ShouldSend(ctx, tenantID, session.ID, session.StartedAt, policy)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("throttle check for session %s: %v", session.ID, err))
			continue
		}
		if !due {
			report.Skipped++
			continue
		}

		outcome := s.reminder.Send(ctx, session)
		switch outcome.Status {
		case ReminderOutcomeSent:
			report.Sent++
		case ReminderOutcomeSkipped:
			report.Skipped++
		case ReminderOutcomeFailed:
			report.Failed++
			if outcome.Err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("send reminder for session %s: %v", session.ID, outcome.Err))
			}
		}
	}
}

// acquireLock takes the per-tenant redis lock so a cron run and an
// operator-triggered run never overlap across instances. Without redis the
// in-process inFlight map is the only guard.
func (s *ReconcileService) acquireLock(ctx context.Context, tenantID string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := "reconcile:lock:" + tenantID
	ok, err := s.redis.SetNX(ctx, key, "1", reconcileLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire reconcile lock for tenant %s: %w", tenantID, err)
	}
	if !ok {
		return nil, ErrReconcileRunning
	}

	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			log.Printf("reconcile: failed to release lock for tenant %s: %v", tenantID, err)
		}
	}, nil
}
