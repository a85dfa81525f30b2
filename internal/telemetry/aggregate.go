package telemetry

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Resolution selects the lookback window and bucket width for aggregation.
type Resolution string

const (
	ResolutionFine   Resolution = "fine"   // last 24h, 30-minute buckets
	ResolutionMedium Resolution = "medium" // last 7d, 6-hour buckets
	ResolutionCoarse Resolution = "coarse" // last 30d, 1-day buckets
)

type resolutionSpec struct {
	Lookback    time.Duration
	BucketWidth time.Duration
	LabelFormat string
}

var resolutionSpecs = map[Resolution]resolutionSpec{
	ResolutionFine:   {Lookback: 24 * time.Hour, BucketWidth: 30 * time.Minute, LabelFormat: "15:04"},
	ResolutionMedium: {Lookback: 7 * 24 * time.Hour, BucketWidth: 6 * time.Hour, LabelFormat: "2006-01-02 15:04"},
	ResolutionCoarse: {Lookback: 30 * 24 * time.Hour, BucketWidth: 24 * time.Hour, LabelFormat: "2006-01-02"},
}

// ResolutionFromTimeframe maps the public timeframe query values to a
// resolution.
func ResolutionFromTimeframe(timeframe string) (Resolution, error) {
	switch timeframe {
	case "24h":
		return ResolutionFine, nil
	case "7d":
		return ResolutionMedium, nil
	case "30d":
		return ResolutionCoarse, nil
	default:
		return "", fmt.Errorf("invalid timeframe %q; use 24h, 7d or 30d", timeframe)
	}
}

// bucketAccum collects the members of one bucket while grouping.
type bucketAccum struct {
	sumTemp     float64
	sumHumidity float64
	count       int
	earliest    time.Time
}

// Aggregate fetches readings in the resolution's lookback window ending now
// and averages them into fixed-width UTC time buckets. Empty buckets are
// omitted; the result is ordered ascending by representative timestamp,
// which is the earliest member reading of each bucket.
func (s *Service) Aggregate(ctx context.Context, res Resolution) ([]TimeBucket, error) {
	rs, ok := resolutionSpecs[res]
	if !ok {
		return nil, fmt.Errorf("unknown resolution %q", res)
	}

	now := s.now().UTC()
	readings, err := s.store.Range(ctx, now.Add(-rs.Lookback), now)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	// Bucket membership is a pure function of (timestamp, bucket width):
	// fixed-duration truncation in UTC, independent of locale or zone.
	buckets := make(map[time.Time]*bucketAccum)
	for _, r := range readings {
		key := r.Timestamp.UTC().Truncate(rs.BucketWidth)
		b, ok := buckets[key]
		if !ok {
			b = &bucketAccum{earliest: r.Timestamp}
			buckets[key] = b
		}
		b.sumTemp += r.Temperature
		b.sumHumidity += r.Humidity
		b.count++
		if r.Timestamp.Before(b.earliest) {
			b.earliest = r.Timestamp
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	result := make([]TimeBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		n := float64(b.count)
		result = append(result, TimeBucket{
			Label:       k.Format(rs.LabelFormat),
			Timestamp:   b.earliest,
			Temperature: b.sumTemp / n,
			Humidity:    b.sumHumidity / n,
		})
	}
	return result, nil
}
