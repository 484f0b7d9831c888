package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// ReconcileScheduler drives ReconcileService.RunAll on a cron spec. The
// core has no background thread of its own; this is the external trigger.
type ReconcileScheduler struct {
	reconcile *ReconcileService
	spec      string
	c         *cron.Cron
}

func NewReconcileScheduler(reconcile *ReconcileService, spec string) *ReconcileScheduler {
	return &ReconcileScheduler{reconcile: reconcile, spec: spec}
}

func (s *ReconcileScheduler) Start() error {
	s.c = cron.New()
	if _, err := s.c.AddFunc(s.spec, func() {
		s.reconcile.RunAll(context.Background())
	}); err != nil {
		return err
	}
	s.c.Start()
	log.Printf("Reconcile scheduler started (%s)", s.spec)
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *ReconcileScheduler) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
}
