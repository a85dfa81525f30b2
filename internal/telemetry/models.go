package telemetry

import (
	"context"
	"time"
)

// Reading is one immutable sensor observation. Readings are created by the
// ingestion gateway with a server-side timestamp; sensor-reported time is
// ignored.
type Reading struct {
	DeviceID    string    `json:"deviceId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
}

// TimeBucket is one averaged data point produced by aggregation. Buckets are
// derived per query and never persisted. Field names mirror Reading for
// client convenience.
type TimeBucket struct {
	Label       string    `json:"label"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// Store is the contract the persistent reading store must satisfy. The store
// is append-only: existing readings are never mutated or deleted.
type Store interface {
	// Append durably persists one reading.
	Append(ctx context.Context, r Reading) error

	// Latest returns the most recently appended reading.
	Latest(ctx context.Context) (Reading, error)

	// Range returns all readings with from <= timestamp <= to, ascending by
	// timestamp. An empty window yields an empty slice, not an error.
	Range(ctx context.Context, from, to time.Time) ([]Reading, error)
}

// Archiver persists generated report documents as a side effect of report
// generation. Archival failures are logged by the caller and never surfaced.
type Archiver interface {
	Archive(filename string, content []byte) error
}
