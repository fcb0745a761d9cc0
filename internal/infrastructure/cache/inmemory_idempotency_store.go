package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rafflehub/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements IdempotencyStore with an in-process
// map. Suitable for single-instance deployments and tests; expired entries
// are reaped by a background goroutine.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiry    map[string]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		expiry:   make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.reapLoop()

	return store
}

// MarkProcessed marks a message as processed with a TTL.
// Returns true if the message was newly marked.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, messageID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, exists := s.expiry[messageID]; exists && time.Now().Before(expiresAt) {
		return false, nil
	}
	s.expiry[messageID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed checks if a message has already been processed
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, exists := s.expiry[messageID]
	return exists && time.Now().Before(expiresAt), nil
}

// Close stops the reaper goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of tracked messages
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiry)
}

func (s *InMemoryIdempotencyStore) reapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.reap()
		}
	}
}

func (s *InMemoryIdempotencyStore) reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for messageID, expiresAt := range s.expiry {
		if now.After(expiresAt) {
			delete(s.expiry, messageID)
		}
	}
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
