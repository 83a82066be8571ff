package store

import (
	"fmt"
	"time"
)

// Clock supplies the wall-clock time used for closed_at and sync runs.
// A failing clock aborts the sync, since closed_at is write-once.
type Clock interface {
	Now() (time.Time, error)
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns the current time, or an error if the host clock reads
// before the Unix epoch.
func (SystemClock) Now() (time.Time, error) {
	now := time.Now()
	if now.Unix() <= 0 {
		return time.Time{}, fmt.Errorf("system clock reads %s, before the unix epoch", now.UTC().Format(time.RFC3339))
	}
	return now, nil
}
