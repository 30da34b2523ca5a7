package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SyncScheduler wires up the cron job that periodically pushes the
// bookmark list to CareerOS.
type SyncScheduler struct {
	cron *cron.Cron
	sync func(ctx context.Context) error
	spec string
	log  *slog.Logger
}

// NewSyncScheduler fires sync every intervalHours hours.
func NewSyncScheduler(sync func(ctx context.Context) error, intervalHours int, log *slog.Logger) *SyncScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &SyncScheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		sync: sync,
		spec: fmt.Sprintf("@every %dh", intervalHours),
		log:  log,
	}
}

// Start registers the job and starts the scheduler. One sync runs
// immediately so the server is current without waiting for the first tick.
func (s *SyncScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("sync scheduler started", "spec", s.spec)

	go s.runSync(ctx)
	return nil
}

// Stop gracefully shuts the scheduler down.
func (s *SyncScheduler) Stop() {
	s.cron.Stop()
	s.log.Info("sync scheduler stopped")
}

func (s *SyncScheduler) runSync(ctx context.Context) {
	if err := s.sync(ctx); err != nil {
		s.log.Warn("scheduled sync failed", "err", err)
		return
	}
	s.log.Info("scheduled sync complete")
}
