package telemetry

import (
	"context"
	"time"
)

// Service exposes the read side of the pipeline: latest reading, bucketed
// history and report generation. All queries go straight to the Store; the
// store is the single source of truth and nothing is cached across requests.
type Service struct {
	store   Store
	archive Archiver

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new Service. archive may be nil, in which case report
// archival is skipped.
func NewService(store Store, archive Archiver) *Service {
	return &Service{
		store:   store,
		archive: archive,
		now:     time.Now,
	}
}

// Latest delegates to the underlying store.
func (s *Service) Latest(ctx context.Context) (Reading, error) {
	return s.store.Latest(ctx)
}
