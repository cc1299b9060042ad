package timetrack

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iska-scrum/iska/internal/db"
)

// track runs one closed timer of length d starting at the current clock.
func (f *fixture) track(t *testing.T, taskID int64, d time.Duration) *db.TimeEntry {
	t.Helper()
	ctx := context.Background()

	_, err := f.tracker.Start(ctx, taskID, f.user.ID)
	require.NoError(t, err)
	f.clock.Advance(d)
	res, err := f.tracker.Stop(ctx, taskID, f.user.ID)
	require.NoError(t, err)
	require.True(t, res.Stopped)
	return res.Entry
}

func TestUserReport_Window(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.clock.now = t0.Add(-2 * time.Hour)
	before := f.track(t, f.task.ID, 10*time.Minute)

	f.clock.now = t0.Add(time.Hour)
	inside := f.track(t, f.task.ID, 30*time.Minute)

	f.clock.now = t0.Add(7 * time.Hour)
	straddles := f.track(t, f.task.ID, 2*time.Hour)

	from, to := t0, t0.Add(8*time.Hour)

	f.clock.now = t0.Add(10 * time.Hour)
	running, err := f.tracker.Start(ctx, f.task.ID, f.user.ID)
	require.NoError(t, err)

	entries, err := f.tracker.UserReport(ctx, f.user.ID, from, to)
	require.NoError(t, err)

	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, inside.ID)
	assert.NotContains(t, ids, before.ID, "started before the window")
	assert.NotContains(t, ids, straddles.ID, "ended after the window")
	assert.Contains(t, ids, running.ID, "running entries are included even when they start after to")
}

func TestUserReport_OtherUsersExcluded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	other, err := f.store.CreateUser(ctx, db.UserInput{Name: "Grace", Email: "grace@example.com"})
	require.NoError(t, err)
	_, err = f.tracker.Start(ctx, f.task.ID, other.ID)
	require.NoError(t, err)

	entries, err := f.tracker.UserReport(ctx, f.user.ID, t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUserTotalToday(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.clock.now = t0.Add(-24 * time.Hour)
	f.track(t, f.task.ID, time.Hour)

	f.clock.now = t0
	f.track(t, f.task.ID, 10*time.Minute)

	_, err := f.tracker.Start(ctx, f.task.ID, f.user.ID)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	total, err := f.tracker.UserTotalToday(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600+120), total)
}

func TestTeamToday(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	other, err := f.store.CreateUser(ctx, db.UserInput{Name: "Grace", Email: "grace@example.com"})
	require.NoError(t, err)

	f.track(t, f.task.ID, 90*time.Second)

	totals, err := f.tracker.TeamToday(ctx)
	require.NoError(t, err)

	want := []UserTotal{
		{UserID: other.ID, Name: "Grace", Seconds: 0},
		{UserID: f.user.ID, Name: "Ada", Seconds: 90},
	}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("TeamToday mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyTotals(t *testing.T) {
	day1 := time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	now := day2.Add(5 * time.Minute)

	entries := []db.TimeEntry{
		{StartTime: day2, EndTime: db.Some(day2.Add(time.Minute)), DurationSeconds: db.Some(int64(60))},
		{StartTime: day1, EndTime: db.Some(day1.Add(time.Hour)), DurationSeconds: db.Some(int64(3600))},
		{StartTime: day2.Add(2 * time.Minute)},
	}

	got := DailyTotals(entries, now)
	want := []DayTotal{
		{Day: "2026-10-14", Seconds: 3600, Entries: 1},
		{Day: "2026-10-15", Seconds: 60 + 180, Entries: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DailyTotals mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, DailyTotals(nil, now))
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:     "0:00:00",
		59:    "0:00:59",
		125:   "0:02:05",
		3600:  "1:00:00",
		90061: "25:01:01",
		-5:    "0:00:00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "FormatDuration(%d)", in)
	}
}
