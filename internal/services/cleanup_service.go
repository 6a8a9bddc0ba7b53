package services

import (
	"context"
	"sync"
	"time"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
)

// CleanupService handles periodic removal of expired sessions and their counters
type CleanupService struct {
	sessionRepo *repositories.SessionRepository
	counters    *CounterService
	metrics     *metrics.Registry
	lifetime    time.Duration
	interval    time.Duration
	now         func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	sessionRepo *repositories.SessionRepository,
	counters *CounterService,
	reg *metrics.Registry,
	lifetime time.Duration,
	interval time.Duration,
) *CleanupService {
	return &CleanupService{
		sessionRepo: sessionRepo,
		counters:    counters,
		metrics:     reg,
		lifetime:    lifetime,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
		done:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup process
// Runs cleanup immediately, then every interval
func (s *CleanupService) Start() {
	s.RunCleanupNow()

	s.ticker = time.NewTicker(s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ticker.C:
				s.RunCleanupNow()
			case <-s.done:
				logging.Info("Cleanup service stopped")
				return
			}
		}
	}()

	logging.Info("Cleanup service started", "interval", s.interval.String())
}

// Stop stops the cleanup service and waits for a running sweep to finish
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
	s.wg.Wait()
}

// RunCleanupNow removes sessions idle for longer than the lifetime
// Returns the number of sessions deleted
func (s *CleanupService) RunCleanupNow() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.lifetime)

	ids, err := s.sessionRepo.ListExpiredIDs(ctx, cutoff)
	if err != nil {
		logging.Error("Failed to list expired sessions", "error", err)
		return 0
	}
	defer s.recordActive(ctx, cutoff)

	if len(ids) == 0 {
		logging.Debug("No expired sessions to clean up")
		return 0
	}

	for _, id := range ids {
		if err := s.counters.Forget(ctx, id); err != nil {
			logging.Warn("Failed to drop counter of expired session", "session_id", id, "error", err)
		}
	}

	deleted, err := s.sessionRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		logging.Error("Failed to delete expired sessions", "error", err, "deleted", deleted)
	}

	s.metrics.SessionsCleanedTotal.Add(float64(deleted))
	logging.Info("Session cleanup completed", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	return deleted
}

// recordActive publishes the number of sessions still alive after a sweep
func (s *CleanupService) recordActive(ctx context.Context, cutoff time.Time) {
	active, err := s.sessionRepo.CountActive(ctx, cutoff)
	if err != nil {
		logging.Warn("Failed to count active sessions", "error", err)
		return
	}
	s.metrics.SessionsActive.Set(float64(active))
}
