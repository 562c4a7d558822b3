package memory

import (
	"context"
	"sync"
	"time"

	"meytle/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes keyed by idempotency key. Records
// older than the TTL are evicted lazily on lookup; a zero TTL keeps them for
// the lifetime of the process.
type IdempotencyStore struct {
	ttl     time.Duration
	mu      sync.RWMutex
	records map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		ttl:     ttl,
		records: make(map[string]middleware.IdempotencyRecord),
	}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if s.expired(rec, time.Now()) {
		s.mu.Lock()
		if stored, still := s.records[key]; still && s.expired(stored, time.Now()) {
			delete(s.records, key)
		}
		s.mu.Unlock()
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.OccurredAt) > s.ttl
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
