package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
	"github.com/iska-scrum/iska/internal/timetrack"
)

// newTimerCmd creates the timer command with subcommands.
func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time against tasks",
		Long: `Track time against tasks.

Each user has at most one running timer per task. Starting a running timer
closes the open entry first. Stopping an idle timer does nothing.

The user comes from --user or ISKA_USER.

Examples:
  iska timer start 12 --user 1
  iska timer status 12 --user 1
  iska timer stop 12 --user 1
  iska timer report --user 1 --from 2026-10-01 --daily`,
	}

	cmd.PersistentFlags().Int64("user", 0, "user id (default $ISKA_USER)")
	_ = viper.BindPFlag("user", cmd.PersistentFlags().Lookup("user"))

	cmd.AddCommand(newTimerStartCmd())
	cmd.AddCommand(newTimerStopCmd())
	cmd.AddCommand(newTimerStatusCmd())
	cmd.AddCommand(newTimerTotalCmd())
	cmd.AddCommand(newTimerReportCmd())
	cmd.AddCommand(newTimerTodayCmd())
	cmd.AddCommand(newTimerTeamCmd())

	return cmd
}

// currentUser resolves --user or ISKA_USER.
func currentUser() (int64, error) {
	id := viper.GetInt64("user")
	if id <= 0 {
		return 0, iskaerrors.ErrMissingField("user")
	}
	return id, nil
}

// timerArgs parses the task id argument and the acting user.
func timerArgs(args []string) (taskID, userID int64, err error) {
	if taskID, err = idArg(args, 0, "task_id"); err != nil {
		return 0, 0, err
	}
	if userID, err = currentUser(); err != nil {
		return 0, 0, err
	}
	return taskID, userID, nil
}

func newTimerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start a timer on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, userID, err := timerArgs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entry, err := a.Timer.Start(ctx, taskID, userID)
				if err != nil {
					return err
				}
				return render(cmd, entry, func(w io.Writer) {
					printInfo(w, "Timer started on task %d at %s (entry %d)",
						taskID, entry.StartTime.Local().Format(time.TimeOnly), entry.ID)
				})
			})
		},
	}
}

func newTimerStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <task-id>",
		Short: "Stop the running timer on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, userID, err := timerArgs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Timer.Stop(ctx, taskID, userID)
				if err != nil {
					return err
				}
				return render(cmd, res, func(w io.Writer) {
					if !res.Stopped {
						printInfo(w, "Task %d: %s", taskID, res.Message)
						return
					}
					printInfo(w, "Timer stopped on task %d after %s",
						taskID, timetrack.FormatDuration(res.Entry.DurationSeconds.V))
				})
			})
		},
	}
}

type timerStatus struct {
	TaskID         int64         `json:"task_id" yaml:"task_id"`
	UserID         int64         `json:"user_id" yaml:"user_id"`
	State          string        `json:"state" yaml:"state"`
	Entry          *db.TimeEntry `json:"entry,omitempty" yaml:"entry,omitempty"`
	ElapsedSeconds int64         `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

func newTimerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show whether a timer is running on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, userID, err := timerArgs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				active, err := a.Timer.ActiveTimer(ctx, taskID, userID)
				if err != nil {
					return err
				}

				status := timerStatus{TaskID: taskID, UserID: userID, State: timetrack.Idle.String()}
				if active != nil {
					status.State = timetrack.Running.String()
					status.Entry = active
					status.ElapsedSeconds = timetrack.Duration(active.StartTime, time.Now())
				}
				return render(cmd, status, func(w io.Writer) {
					if active == nil {
						fmt.Fprintf(w, "Task %d: idle\n", taskID)
						return
					}
					fmt.Fprintf(w, "Task %d: running for %s (since %s)\n", taskID,
						timetrack.FormatDuration(status.ElapsedSeconds), active.StartTime.Local().Format(time.DateTime))
				})
			})
		},
	}
}

func newTimerTotalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total <task-id>",
		Short: "Show the total tracked time of a task",
		Long:  "Show the sum of all closed time entries of a task, across users.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				total, err := a.Timer.TotalTime(ctx, taskID)
				if err != nil {
					return err
				}
				out := map[string]int64{"task_id": taskID, "total_seconds": total}
				return render(cmd, out, func(w io.Writer) {
					fmt.Fprintf(w, "Task %d: %s\n", taskID, timetrack.FormatDuration(total))
				})
			})
		},
	}
}

// reportWindow parses --from and --to. A date-only --to covers the whole day.
func reportWindow(from, to string, now time.Time) (time.Time, time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start, end := midnight.AddDate(0, 0, -6), now

	if from != "" {
		t, err := parseLocal(from)
		if err != nil {
			return start, end, iskaerrors.ErrInvalidInput("from", err.Error())
		}
		start = t
	}
	if to != "" {
		t, err := parseLocal(to)
		if err != nil {
			return start, end, iskaerrors.ErrInvalidInput("to", err.Error())
		}
		if len(strings.TrimSpace(to)) == len(time.DateOnly) {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		end = t
	}
	if end.Before(start) {
		return start, end, iskaerrors.ErrInvalidInput("to", "must not be before from")
	}
	return start, end, nil
}

// parseLocal reads a date or date-time in the local zone.
func parseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.DateTime, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not a date (want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)", s)
}

func newTimerReportCmd() *cobra.Command {
	var from, to string
	var daily bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List a user's time entries in a window",
		Long: `List the time entries of a user that started at or after --from and ended
at or before --to. Running entries that started after --from are included.

The window defaults to the last seven days. With --daily the entries are
summed per calendar day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			now := time.Now()
			start, end, err := reportWindow(from, to, now)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Timer.UserReport(ctx, userID, start, end)
				if err != nil {
					return err
				}

				if daily {
					days := timetrack.DailyTotals(entries, now)
					return render(cmd, days, func(w io.Writer) { printDailyTotals(w, days) })
				}
				return render(cmd, entries, func(w io.Writer) { printTimeEntries(w, entries, now) })
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start, YYYY-MM-DD or YYYY-MM-DD HH:MM:SS (default 7 days ago)")
	cmd.Flags().StringVar(&to, "to", "", "window end (default now)")
	cmd.Flags().BoolVar(&daily, "daily", false, "sum entries per day")
	return cmd
}

func printTimeEntries(w io.Writer, entries []db.TimeEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No time entries in this window.")
		return
	}
	tw := newTable(w, "ID", "TASK", "START", "END", "DURATION")
	var total int64
	for _, e := range entries {
		end := "running"
		secs := timetrack.Duration(e.StartTime, now)
		if !e.Running() {
			end = e.EndTime.V.Local().Format(time.DateTime)
			secs = e.DurationSeconds.OrZero()
		}
		total += secs
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			e.ID, e.TaskID, e.StartTime.Local().Format(time.DateTime), end, timetrack.FormatDuration(secs))
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", timetrack.FormatDuration(total))
	_ = tw.Flush()
}

func printDailyTotals(w io.Writer, days []timetrack.DayTotal) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No time entries in this window.")
		return
	}
	tw := newTable(w, "DAY", "ENTRIES", "TRACKED")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Day, d.Entries, timetrack.FormatDuration(d.Seconds))
	}
	_ = tw.Flush()
}

func newTimerTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the time a user tracked today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				total, err := a.Timer.UserTotalToday(ctx, userID)
				if err != nil {
					return err
				}
				out := map[string]int64{"user_id": userID, "seconds": total}
				return render(cmd, out, func(w io.Writer) {
					fmt.Fprintf(w, "Today: %s\n", timetrack.FormatDuration(total))
				})
			})
		},
	}
}

func newTimerTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team",
		Short: "Show today's tracked time for every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				totals, err := a.Timer.TeamToday(ctx)
				if err != nil {
					return err
				}
				return render(cmd, totals, func(w io.Writer) {
					printTitle(w, "Team time today")
					if len(totals) == 0 {
						fmt.Fprintln(w, "No users found.")
						return
					}
					tw := newTable(w, "USER", "NAME", "TRACKED")
					for _, t := range totals {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", t.UserID, truncate(t.Name, 30), timetrack.FormatDuration(t.Seconds))
					}
					_ = tw.Flush()
				})
			})
		},
	}
}
