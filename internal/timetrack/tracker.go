// Package timetrack implements per-task timers on top of the time_entries table.
//
// Each (task, user) pair is either Idle or Running. Running means exactly one
// entry for the pair has no end time. Start on a Running pair closes the open
// entry before opening the next one, and both steps share a transaction.
package timetrack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iska-scrum/iska/internal/db"
)

// State is the timer state of a (task, user) pair.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// MessageNoActiveTimer is reported when Stop finds nothing to stop.
const MessageNoActiveTimer = "no active timer"

// StopResult describes the outcome of Stop. Stopping an idle pair is not an
// error; Stopped is false and Entry is nil.
type StopResult struct {
	Stopped bool          `json:"stopped" yaml:"stopped"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
	Entry   *db.TimeEntry `json:"entry,omitempty" yaml:"entry,omitempty"`
}

// Tracker runs timers against a store.
type Tracker struct {
	store  *db.Store
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Tracker using the wall clock.
func New(store *db.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// clock reads the time source at whole-second precision.
func (t *Tracker) clock() time.Time {
	return t.now().Truncate(time.Second)
}

// State reports whether the pair has an open entry.
func (t *Tracker) State(ctx context.Context, taskID, userID int64) (State, error) {
	active, err := t.ActiveTimer(ctx, taskID, userID)
	if err != nil {
		return Idle, err
	}
	if active != nil {
		return Running, nil
	}
	return Idle, nil
}

// ActiveTimer returns the open entry for the pair, or nil when Idle.
func (t *Tracker) ActiveTimer(ctx context.Context, taskID, userID int64) (*db.TimeEntry, error) {
	return t.store.ActiveTimeEntry(ctx, taskID, userID)
}

// Start moves the pair to Running and returns the new entry. A Running pair
// is first moved to Idle exactly as Stop would.
func (t *Tracker) Start(ctx context.Context, taskID, userID int64) (*db.TimeEntry, error) {
	now := t.clock()

	var entry *db.TimeEntry
	err := t.store.RunInTx(ctx, func(tx *db.TxOps) error {
		active, err := tx.ActiveTimeEntry(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if active != nil {
			if _, err := t.toIdle(ctx, tx, active, now); err != nil {
				return err
			}
		}

		entry, err = t.toRunning(ctx, tx, taskID, userID, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("start timer for task %d: %w", taskID, err)
	}

	t.logger.Info("timer started", "task_id", taskID, "user_id", userID, "entry_id", entry.ID)
	return entry, nil
}

// Stop moves the pair to Idle. Stopping an Idle pair is a no-op success.
func (t *Tracker) Stop(ctx context.Context, taskID, userID int64) (StopResult, error) {
	now := t.clock()

	var result StopResult
	err := t.store.RunInTx(ctx, func(tx *db.TxOps) error {
		active, err := tx.ActiveTimeEntry(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if active == nil {
			result = StopResult{Message: MessageNoActiveTimer}
			return nil
		}

		closed, err := t.toIdle(ctx, tx, active, now)
		if err != nil {
			return err
		}
		result = StopResult{Stopped: true, Entry: closed}
		return nil
	})
	if err != nil {
		return StopResult{}, fmt.Errorf("stop timer for task %d: %w", taskID, err)
	}

	if result.Stopped {
		t.logger.Info("timer stopped", "task_id", taskID, "user_id", userID,
			"entry_id", result.Entry.ID, "duration_seconds", result.Entry.DurationSeconds.V)
	} else {
		t.logger.Debug("stop ignored, timer idle", "task_id", taskID, "user_id", userID)
	}
	return result, nil
}

// entryCloser is satisfied by *db.Store and *db.TxOps.
type entryCloser interface {
	CloseTimeEntry(ctx context.Context, id int64, end time.Time, durationSeconds int64) error
}

// entryOpener is satisfied by *db.Store and *db.TxOps.
type entryOpener interface {
	InsertTimeEntry(ctx context.Context, taskID, userID int64, start time.Time) (*db.TimeEntry, error)
}

// toIdle is the Running -> Idle transition. It returns the closed entry.
func (t *Tracker) toIdle(ctx context.Context, c entryCloser, active *db.TimeEntry, end time.Time) (*db.TimeEntry, error) {
	seconds := Duration(active.StartTime, end)
	if err := c.CloseTimeEntry(ctx, active.ID, end, seconds); err != nil {
		return nil, err
	}

	closed := *active
	closed.EndTime = db.Some(end.UTC())
	closed.DurationSeconds = db.Some(seconds)
	return &closed, nil
}

// toRunning is the Idle -> Running transition.
func (t *Tracker) toRunning(ctx context.Context, o entryOpener, taskID, userID int64, start time.Time) (*db.TimeEntry, error) {
	return o.InsertTimeEntry(ctx, taskID, userID, start)
}

// TotalTime sums the closed durations of a task in seconds. Running entries
// are not counted until stopped.
func (t *Tracker) TotalTime(ctx context.Context, taskID int64) (int64, error) {
	return t.store.SumTaskDurations(ctx, taskID)
}

// UserReport returns the user's entries that started at or after from and
// ended at or before to. Running entries that started at or after from are
// included whatever their relation to to.
func (t *Tracker) UserReport(ctx context.Context, userID int64, from, to time.Time) ([]db.TimeEntry, error) {
	return t.store.ListUserTimeEntries(ctx, userID, from, to)
}

// Duration returns the whole seconds between start and end, never negative.
func Duration(start, end time.Time) int64 {
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
