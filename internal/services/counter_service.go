package services

import (
	"context"
	"fmt"

	"github.com/dgtt-autoecole/api-backend/internal/cache"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
)

// CounterService implements the candidate interface click counter.
// Counts start at 0, grow by one per click and are never persisted.
type CounterService struct {
	store   cache.CounterStore
	metrics *metrics.Registry
}

// NewCounterService creates a new counter service
func NewCounterService(store cache.CounterStore, reg *metrics.Registry) *CounterService {
	return &CounterService{
		store:   store,
		metrics: reg,
	}
}

// Value returns the count of a session
func (s *CounterService) Value(ctx context.Context, sessionID string) (int64, error) {
	count, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}
	return count, nil
}

// Increment records one click and returns the new count
func (s *CounterService) Increment(ctx context.Context, sessionID string) (int64, error) {
	count, err := s.store.Increment(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	s.metrics.CounterIncrementsTotal.Inc()
	return count, nil
}

// Forget drops the counter of a session
func (s *CounterService) Forget(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// Ping reports whether the counter store is reachable
func (s *CounterService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// StoreName identifies the counter backend
func (s *CounterService) StoreName() string {
	return s.store.Name()
}
