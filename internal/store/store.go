package store

import "errors"

// ErrNoReadings is returned by Latest when nothing has been ingested yet.
var ErrNoReadings = errors.New("no readings recorded")
