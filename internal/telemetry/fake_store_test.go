package telemetry

import (
	"context"
	"errors"
	"time"
)

// fakeStore is a minimal in-memory Store for exercising the service without
// depending on the store package.
type fakeStore struct {
	readings []Reading
	rangeErr error
}

func (f *fakeStore) Append(_ context.Context, r Reading) error {
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeStore) Latest(context.Context) (Reading, error) {
	if len(f.readings) == 0 {
		return Reading{}, errors.New("no readings")
	}
	return f.readings[len(f.readings)-1], nil
}

func (f *fakeStore) Range(_ context.Context, from, to time.Time) ([]Reading, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	var result []Reading
	for _, r := range f.readings {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}
	return result, nil
}

// newTestService returns a Service over st with a frozen clock.
func newTestService(st Store, now time.Time) *Service {
	svc := NewService(st, nil)
	svc.now = func() time.Time { return now }
	return svc
}
