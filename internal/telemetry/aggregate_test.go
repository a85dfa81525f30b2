package telemetry

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestResolutionFromTimeframe(t *testing.T) {
	cases := map[string]Resolution{
		"24h": ResolutionFine,
		"7d":  ResolutionMedium,
		"30d": ResolutionCoarse,
	}
	for timeframe, want := range cases {
		got, err := ResolutionFromTimeframe(timeframe)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", timeframe, err)
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", timeframe, want, got)
		}
	}

	if _, err := ResolutionFromTimeframe("1y"); err == nil {
		t.Error("expected error for unknown timeframe")
	}
}

func TestAggregateWindowing(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{readings: []Reading{
		// Outside the 24h lookback.
		{DeviceID: "dht22-1", Temperature: 99, Humidity: 99, Timestamp: now.Add(-25 * time.Hour)},
		// Inside.
		{DeviceID: "dht22-1", Temperature: 20, Humidity: 40, Timestamp: now.Add(-2 * time.Hour)},
		{DeviceID: "dht22-1", Temperature: 22, Humidity: 42, Timestamp: now.Add(-1 * time.Hour)},
	}}
	svc := newTestService(st, now)

	buckets, err := svc.Aggregate(context.Background(), ResolutionFine)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	for _, b := range buckets {
		if b.Temperature == 99 {
			t.Errorf("bucket %s includes a reading outside the lookback window", b.Label)
		}
	}
	if len(buckets) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(buckets))
	}
}

// Two readings one hour apart never share a 30-minute bucket: each bucket
// reflects its single member exactly.
func TestAggregateFineOneHourApart(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	t0 := now.Add(-3 * time.Hour)
	st := &fakeStore{readings: []Reading{
		{DeviceID: "dht22-1", Temperature: 20.0, Humidity: 40.0, Timestamp: t0},
		{DeviceID: "dht22-1", Temperature: 22.0, Humidity: 42.0, Timestamp: t0.Add(time.Hour)},
	}}
	svc := newTestService(st, now)

	buckets, err := svc.Aggregate(context.Background(), ResolutionFine)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Temperature != 20.0 || buckets[0].Humidity != 40.0 {
		t.Errorf("first bucket should reflect its single member, got %+v", buckets[0])
	}
	if buckets[1].Temperature != 22.0 || buckets[1].Humidity != 42.0 {
		t.Errorf("second bucket should reflect its single member, got %+v", buckets[1])
	}
	if !buckets[0].Timestamp.Equal(t0) || !buckets[1].Timestamp.Equal(t0.Add(time.Hour)) {
		t.Error("representative timestamps should be the member readings' own timestamps")
	}
}

func TestAggregateSameBucketMean(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	// Both readings fall in the 09:00-09:30 bucket.
	t0 := time.Date(2026, 8, 30, 9, 5, 0, 0, time.UTC)
	st := &fakeStore{readings: []Reading{
		{DeviceID: "dht22-1", Temperature: 20.0, Humidity: 40.0, Timestamp: t0},
		{DeviceID: "dht22-1", Temperature: 22.0, Humidity: 42.0, Timestamp: t0.Add(10 * time.Minute)},
	}}
	svc := newTestService(st, now)

	buckets, err := svc.Aggregate(context.Background(), ResolutionFine)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Temperature != 21.0 || buckets[0].Humidity != 41.0 {
		t.Errorf("expected mean T=21.0 H=41.0, got %+v", buckets[0])
	}
	if !buckets[0].Timestamp.Equal(t0) {
		t.Errorf("representative timestamp should be the earliest member, got %v", buckets[0].Timestamp)
	}
}

func TestAggregateEmptyWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeStore{}, now)

	buckets, err := svc.Aggregate(context.Background(), ResolutionCoarse)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(buckets) != 0 {
		t.Errorf("expected no buckets, got %d", len(buckets))
	}
}

// Property: for randomized reading sets, buckets come out in strictly
// ascending representative-timestamp order and each bucket's average equals
// the arithmetic mean of exactly its member readings.
func TestAggregateRandomizedProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)

	for run := 0; run < 20; run++ {
		st := &fakeStore{}
		n := 1 + rng.Intn(200)
		for i := 0; i < n; i++ {
			st.readings = append(st.readings, Reading{
				DeviceID:    "dht22-1",
				Temperature: -10 + rng.Float64()*50,
				Humidity:    rng.Float64() * 100,
				Timestamp:   now.Add(-time.Duration(rng.Int63n(int64(24 * time.Hour)))),
			})
		}
		svc := newTestService(st, now)

		buckets, err := svc.Aggregate(context.Background(), ResolutionFine)
		if err != nil {
			t.Fatalf("run %d: aggregate failed: %v", run, err)
		}

		// Recompute the expected means independently.
		type expect struct {
			sumTemp, sumHum float64
			count           int
		}
		expected := make(map[time.Time]*expect)
		for _, r := range st.readings {
			key := r.Timestamp.UTC().Truncate(30 * time.Minute)
			e, ok := expected[key]
			if !ok {
				e = &expect{}
				expected[key] = e
			}
			e.sumTemp += r.Temperature
			e.sumHum += r.Humidity
			e.count++
		}

		if len(buckets) != len(expected) {
			t.Fatalf("run %d: expected %d buckets, got %d", run, len(expected), len(buckets))
		}
		for i, b := range buckets {
			if i > 0 && !buckets[i-1].Timestamp.Before(b.Timestamp) {
				t.Fatalf("run %d: buckets not strictly ascending at index %d", run, i)
			}
			e := expected[b.Timestamp.UTC().Truncate(30*time.Minute)]
			if e == nil {
				t.Fatalf("run %d: unexpected bucket at %v", run, b.Timestamp)
			}
			wantTemp := e.sumTemp / float64(e.count)
			wantHum := e.sumHum / float64(e.count)
			if math.Abs(b.Temperature-wantTemp) > 1e-9 || math.Abs(b.Humidity-wantHum) > 1e-9 {
				t.Fatalf("run %d: bucket %s mean mismatch: got T=%v H=%v want T=%v H=%v",
					run, b.Label, b.Temperature, b.Humidity, wantTemp, wantHum)
			}
		}
	}
}
