package timetrack

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iska-scrum/iska/internal/db"
)

// DayTotal is the tracked time of one calendar day.
type DayTotal struct {
	Day     string `json:"day" yaml:"day"` // YYYY-MM-DD in the clock's location
	Seconds int64  `json:"seconds" yaml:"seconds"`
	Entries int    `json:"entries" yaml:"entries"`
}

// UserTotal is the tracked time of one user.
type UserTotal struct {
	UserID  int64  `json:"user_id" yaml:"user_id"`
	Name    string `json:"name" yaml:"name"`
	Seconds int64  `json:"seconds" yaml:"seconds"`
}

// elapsed returns the closed duration of e, or the seconds it has been
// running at now.
func elapsed(e db.TimeEntry, now time.Time) int64 {
	if secs, ok := e.DurationSeconds.Get(); ok && !e.Running() {
		return secs
	}
	return Duration(e.StartTime, now)
}

// startOfDay returns local midnight of the tracker's current day.
func (t *Tracker) startOfDay() (midnight, now time.Time) {
	now = t.clock()
	midnight = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight, now
}

// UserTotalToday returns the seconds the user tracked since local midnight,
// counting running entries up to now.
func (t *Tracker) UserTotalToday(ctx context.Context, userID int64) (int64, error) {
	midnight, now := t.startOfDay()

	entries, err := t.store.ListUserTimeEntries(ctx, userID, midnight, now)
	if err != nil {
		return 0, fmt.Errorf("user total today: %w", err)
	}

	var total int64
	for _, e := range entries {
		total += elapsed(e, now)
	}
	return total, nil
}

// TeamToday returns today's total for every user, in user list order.
func (t *Tracker) TeamToday(ctx context.Context) ([]UserTotal, error) {
	users, err := t.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserTotal, 0, len(users))
	for _, u := range users {
		secs, err := t.UserTotalToday(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, UserTotal{UserID: u.ID, Name: u.Name, Seconds: secs})
	}
	return out, nil
}

// DailyTotals groups entries by the local calendar day they started on.
// Running entries count up to now. Days are returned oldest first.
func DailyTotals(entries []db.TimeEntry, now time.Time) []DayTotal {
	byDay := make(map[string]*DayTotal)
	for _, e := range entries {
		day := e.StartTime.In(now.Location()).Format(time.DateOnly)
		dt, ok := byDay[day]
		if !ok {
			dt = &DayTotal{Day: day}
			byDay[day] = dt
		}
		dt.Seconds += elapsed(e, now)
		dt.Entries++
	}

	out := make([]DayTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// FormatDuration renders seconds as h:mm:ss. Negative input renders as zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
