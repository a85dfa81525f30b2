package store

import (
	"context"
	"sync"
	"time"

	"github.com/tinoq/sense-backend/internal/telemetry"
)

// MemoryStore is a concurrency-safe in-memory Store, used in tests and for
// development without a database file. Readings are kept in append order,
// which is also timestamp order since the gateway timestamps at ingestion.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []telemetry.Reading
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append appends one reading.
func (s *MemoryStore) Append(_ context.Context, r telemetry.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
	return nil
}

// Latest returns the most recently appended reading, or ErrNoReadings.
func (s *MemoryStore) Latest(_ context.Context) (telemetry.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.readings) == 0 {
		return telemetry.Reading{}, ErrNoReadings
	}
	return s.readings[len(s.readings)-1], nil
}

// Range returns all readings between from and to (inclusive), ascending.
func (s *MemoryStore) Range(_ context.Context, from, to time.Time) ([]telemetry.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []telemetry.Reading
	for _, r := range s.readings {
		if (r.Timestamp.Equal(from) || r.Timestamp.After(from)) &&
			(r.Timestamp.Equal(to) || r.Timestamp.Before(to)) {
			result = append(result, r)
		}
	}
	return result, nil
}
