package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
	"github.com/iska-scrum/iska/internal/timetrack"
)

// newTaskCmd creates the task command with subcommands.
func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage the tasks of an issue",
	}

	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskBoardCmd())

	return cmd
}

func printTasks(w io.Writer, tasks []db.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	tw := newTable(w, "ID", "STATUS", "PRIORITY", "TITLE", "ASSIGNEE", "DUE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Priority, truncate(t.Title, 40), dash(t.AssignedToName), formatDate(t.DueDate))
	}
	_ = tw.Flush()
}

func newTaskListCmd() *cobra.Command {
	var byProject bool

	cmd := &cobra.Command{
		Use:     "list <issue-id>",
		Aliases: []string{"ls"},
		Short:   "List the tasks of an issue, newest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "issue_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var tasks []db.Task
				if byProject {
					tasks, err = a.Store.ListTasksByProject(ctx, id)
				} else {
					tasks, err = a.Store.ListTasks(ctx, id)
				}
				if err != nil {
					return err
				}
				return render(cmd, tasks, func(w io.Writer) { printTasks(w, tasks) })
			})
		},
	}

	cmd.Flags().BoolVar(&byProject, "project", false, "treat the id as a project id and list every task in it")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task, its subtasks and tracked time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := get(ctx, "task", id, a.Store.GetTask)
				if err != nil {
					return err
				}
				subtasks, err := a.Store.ListSubtasks(ctx, id)
				if err != nil {
					return err
				}
				total, err := a.Timer.TotalTime(ctx, id)
				if err != nil {
					return err
				}

				view := struct {
					db.Task      `yaml:",inline"`
					TotalSeconds int64        `json:"total_seconds" yaml:"total_seconds"`
					Subtasks     []db.Subtask `json:"subtasks" yaml:"subtasks"`
				}{*t, total, subtasks}
				return render(cmd, view, func(w io.Writer) {
					printTitle(w, fmt.Sprintf("Task %d: %s", t.ID, t.Title))
					fmt.Fprintf(w, "Issue:       %d\n", t.IssueID)
					fmt.Fprintf(w, "Status:      %s\n", t.Status)
					fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
					fmt.Fprintf(w, "Assignee:    %s\n", dash(t.AssignedToName))
					fmt.Fprintf(w, "Due:         %s\n", formatDate(t.DueDate))
					fmt.Fprintf(w, "Tracked:     %s\n", timetrack.FormatDuration(total))
					fmt.Fprintf(w, "Description: %s\n\n", dash(t.Description))
					printSubtasks(w, subtasks)
				})
			})
		},
	}
}

// taskFlags holds the flags shared by create and update.
type taskFlags struct {
	description string
	status      string
	priority    string
	assign      string
	due         string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&f.status, "status", "", "status: pending, in_progress, review or completed")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "priority: low, medium, high or critical")
	cmd.Flags().StringVar(&f.assign, "assign", "", "assignee user id (empty or 0 clears it)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD (empty clears it)")
}

// apply copies the flags the user set onto in.
func (f *taskFlags) apply(cmd *cobra.Command, in *db.TaskInput) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		in.Description = db.Normalize(f.description)
	}
	if flags.Changed("status") {
		in.Status = db.TaskStatus(f.status)
	}
	if flags.Changed("priority") {
		in.Priority = db.Priority(f.priority)
	}
	if flags.Changed("assign") {
		assignee, err := parseOptionalID("assigned_to", f.assign)
		if err != nil {
			return err
		}
		in.AssignedTo = assignee
	}
	if flags.Changed("due") {
		due, err := parseOptionalDate("due_date", f.due)
		if err != nil {
			return err
		}
		in.DueDate = due
	}
	return nil
}

func newTaskCreateCmd() *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "create <issue-id> <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := idArg(args, 0, "issue_id")
			if err != nil {
				return err
			}

			in := db.TaskInput{IssueID: issueID, Title: args[1]}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Store.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				return render(cmd, t, func(w io.Writer) {
					printInfo(w, "Created task %d: %s [%s, %s]", t.ID, t.Title, t.Status, t.Priority)
				})
			})
		},
	}

	f.register(cmd)
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var f taskFlags
	var title string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := get(ctx, "task", id, a.Store.GetTask)
				if err != nil {
					return err
				}

				in := db.TaskInput{
					Title:       t.Title,
					Description: t.Description,
					Status:      t.Status,
					Priority:    t.Priority,
					AssignedTo:  t.AssignedTo,
					DueDate:     t.DueDate,
				}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if err := f.apply(cmd, &in); err != nil {
					return err
				}

				if err := a.Store.UpdateTask(ctx, id, in); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Updated task %d", id)
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task with its subtasks and time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteTask(ctx, id); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Deleted task %d", id)
				return nil
			})
		},
	}
}

// boardColumn is one status column of the task board.
type boardColumn struct {
	Status db.TaskStatus `json:"status" yaml:"status"`
	Tasks  []db.Task     `json:"tasks" yaml:"tasks"`
}

// buildBoard groups tasks into one column per status, in workflow order.
func buildBoard(tasks []db.Task) []boardColumn {
	statuses := []db.TaskStatus{db.TaskPending, db.TaskInProgress, db.TaskReview, db.TaskCompleted}
	board := make([]boardColumn, len(statuses))
	index := make(map[db.TaskStatus]int, len(statuses))
	for i, s := range statuses {
		board[i] = boardColumn{Status: s, Tasks: []db.Task{}}
		index[s] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			board[i].Tasks = append(board[i].Tasks, t)
		}
	}
	return board
}

func newTaskBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show every task of a project grouped by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := get(ctx, "project", projectID, a.Store.GetProject)
				if err != nil {
					return err
				}
				tasks, err := a.Store.ListTasksByProject(ctx, projectID)
				if err != nil {
					return err
				}

				board := buildBoard(tasks)
				return render(cmd, board, func(w io.Writer) {
					printTitle(w, fmt.Sprintf("Board: %s", p.Name))
					for _, col := range board {
						fmt.Fprintf(w, "\n%s (%d)\n", col.Status, len(col.Tasks))
						for _, t := range col.Tasks {
							fmt.Fprintf(w, "  #%-5d %-8s %s\n", t.ID, t.Priority, truncate(t.Title, 50))
						}
					}
				})
			})
		},
	}
}
