package db

import (
	"context"
	"fmt"
	"time"
)

// TimeEntry is one tracked interval of a user working on a task. A null
// EndTime marks a running timer.
type TimeEntry struct {
	ID              int64               `json:"id" yaml:"id"`
	TaskID          int64               `json:"task_id" yaml:"task_id"`
	UserID          int64               `json:"user_id" yaml:"user_id"`
	StartTime       time.Time           `json:"start_time" yaml:"start_time"`
	EndTime         Optional[time.Time] `json:"end_time" yaml:"end_time"`
	DurationSeconds Optional[int64]     `json:"duration_seconds" yaml:"duration_seconds"`
	CreatedAt       time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" yaml:"updated_at"`
}

// Running reports whether the entry has not been closed.
func (e *TimeEntry) Running() bool {
	return !e.EndTime.Valid
}

const timeEntryColumns = `id, task_id, user_id, start_time, end_time, duration_seconds, created_at, updated_at`

// ActiveTimeEntry returns the open entry for a task and user, or nil.
func (s *Store) ActiveTimeEntry(ctx context.Context, taskID, userID int64) (*TimeEntry, error) {
	return activeTimeEntry(ctx, s.driver, taskID, userID)
}

// ActiveTimeEntry returns the open entry for a task and user, or nil.
func (t *TxOps) ActiveTimeEntry(ctx context.Context, taskID, userID int64) (*TimeEntry, error) {
	return activeTimeEntry(ctx, t.tx, taskID, userID)
}

// InsertTimeEntry opens a new entry starting at start.
func (s *Store) InsertTimeEntry(ctx context.Context, taskID, userID int64, start time.Time) (*TimeEntry, error) {
	return insertTimeEntry(ctx, s.driver, taskID, userID, start)
}

// InsertTimeEntry opens a new entry starting at start.
func (t *TxOps) InsertTimeEntry(ctx context.Context, taskID, userID int64, start time.Time) (*TimeEntry, error) {
	return insertTimeEntry(ctx, t.tx, taskID, userID, start)
}

// CloseTimeEntry records the end time and duration of an entry.
func (s *Store) CloseTimeEntry(ctx context.Context, id int64, end time.Time, durationSeconds int64) error {
	return closeTimeEntry(ctx, s.driver, s.driver.Now(), id, end, durationSeconds)
}

// CloseTimeEntry records the end time and duration of an entry.
func (t *TxOps) CloseTimeEntry(ctx context.Context, id int64, end time.Time, durationSeconds int64) error {
	return closeTimeEntry(ctx, t.tx, t.now, id, end, durationSeconds)
}

// GetTimeEntry retrieves an entry by ID. Returns nil, nil when absent.
func (s *Store) GetTimeEntry(ctx context.Context, id int64) (*TimeEntry, error) {
	return getOne(ctx, s.driver, "get time entry", scanTimeEntry,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?`, id)
}

// ListTaskTimeEntries returns every entry of a task, oldest first.
func (s *Store) ListTaskTimeEntries(ctx context.Context, taskID int64) ([]TimeEntry, error) {
	return list(ctx, s.driver, "list task time entries", scanTimeEntry, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE task_id = ?
		ORDER BY start_time ASC, id ASC
	`, taskID)
}

// SumTaskDurations totals the closed durations of a task. Running entries
// contribute nothing until closed.
func (s *Store) SumTaskDurations(ctx context.Context, taskID int64) (int64, error) {
	var total Optional[int64]
	err := s.driver.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_seconds), 0)
		FROM time_entries
		WHERE task_id = ?
	`, taskID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum task durations: %w", err)
	}
	return total.OrZero(), nil
}

// ListUserTimeEntries returns a user's entries that started at or after from
// and either ended at or before to or are still running. A running entry is
// included regardless of how its start relates to to.
func (s *Store) ListUserTimeEntries(ctx context.Context, userID int64, from, to time.Time) ([]TimeEntry, error) {
	return list(ctx, s.driver, "list user time entries", scanTimeEntry, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE user_id = ? AND start_time >= ? AND (end_time <= ? OR end_time IS NULL)
		ORDER BY start_time ASC, id ASC
	`, userID, FormatTimestamp(from), FormatTimestamp(to))
}

func activeTimeEntry(ctx context.Context, q querier, taskID, userID int64) (*TimeEntry, error) {
	return getOne(ctx, q, "get active time entry", scanTimeEntry, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE task_id = ? AND user_id = ? AND end_time IS NULL
		ORDER BY start_time DESC, id DESC
		LIMIT 1
	`, taskID, userID)
}

func insertTimeEntry(ctx context.Context, q querier, taskID, userID int64, start time.Time) (*TimeEntry, error) {
	res, err := q.Exec(ctx, `
		INSERT INTO time_entries (task_id, user_id, start_time)
		VALUES (?, ?, ?)
	`, taskID, userID, FormatTimestamp(start))
	if err != nil {
		return nil, fmt.Errorf("insert time entry: %w", err)
	}

	return getOne(ctx, q, "get time entry", scanTimeEntry,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?`, res.InsertedID)
}

func closeTimeEntry(ctx context.Context, q querier, now string, id int64, end time.Time, durationSeconds int64) error {
	res, err := q.Exec(ctx, `
		UPDATE time_entries
		SET end_time = ?, duration_seconds = ?, updated_at = `+now+`
		WHERE id = ?
	`, FormatTimestamp(end), durationSeconds, id)
	if err != nil {
		return fmt.Errorf("close time entry: %w", err)
	}
	return expectRow(res, "time entry", id)
}

func scanTimeEntry(row scanner) (*TimeEntry, error) {
	var e TimeEntry
	var start, createdAt, updatedAt Optional[time.Time]

	err := row.Scan(
		&e.ID, &e.TaskID, &e.UserID, &start, &e.EndTime, &e.DurationSeconds,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.StartTime = start.V
	e.CreatedAt = createdAt.V
	e.UpdatedAt = updatedAt.V
	return &e, nil
}
