package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCounterStore keeps counters in process memory
type MemoryCounterStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
	ttl   time.Duration
}

// Ensure MemoryCounterStore implements CounterStore
var _ CounterStore = (*MemoryCounterStore)(nil)

// NewMemoryCounterStore creates an in-memory store whose entries expire
// after ttl without access. Expired entries are purged every cleanupInterval.
func NewMemoryCounterStore(ttl, cleanupInterval time.Duration) *MemoryCounterStore {
	return &MemoryCounterStore{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (s *MemoryCounterStore) Get(_ context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, found := s.cache.Get(sessionID)
	if !found {
		return 0, nil
	}
	count := v.(int64)
	s.cache.Set(sessionID, count, s.ttl)
	return count, nil
}

func (s *MemoryCounterStore) Increment(_ context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if v, found := s.cache.Get(sessionID); found {
		count = v.(int64)
	}
	count++
	s.cache.Set(sessionID, count, s.ttl)
	return count, nil
}

func (s *MemoryCounterStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(sessionID)
	return nil
}

func (s *MemoryCounterStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryCounterStore) Name() string {
	return "memory"
}

// Len returns the number of live entries
func (s *MemoryCounterStore) Len() int {
	return s.cache.ItemCount()
}

// Close drops every counter
func (s *MemoryCounterStore) Close() error {
	s.cache.Flush()
	return nil
}
