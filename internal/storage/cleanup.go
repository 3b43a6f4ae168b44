package storage

import (
	"context"
	"time"

	"videoagent/internal/logging"
)

// Scheduler periodically prunes stale uploads from a MediaStore
type Scheduler struct {
	store    *MediaStore
	interval time.Duration
	maxAge   time.Duration
	logger   logging.Logger
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(store *MediaStore, interval, maxAge time.Duration, log logging.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		logger:   log.With(logging.F("component", "cleanup")),
	}
}

// Run prunes once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Cleanup scheduler started",
		logging.F("interval", s.interval),
		logging.F("max_age", s.maxAge))

	s.cleanOld()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanOld()
		case <-ctx.Done():
			s.logger.Info("Cleanup scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) cleanOld() {
	if n := s.store.Prune(s.maxAge); n > 0 {
		s.logger.Info("Cleanup complete", logging.F("removed", n))
	}
}
