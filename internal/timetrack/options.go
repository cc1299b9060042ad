package timetrack

import (
	"log/slog"
	"time"
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source. Readings are truncated to whole seconds.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger sets the logger for the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}
