package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
)

// newSubtaskCmd creates the subtask command with subcommands.
func newSubtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"subtasks"},
		Short:   "Manage the subtasks of a task",
	}

	cmd.AddCommand(newSubtaskListCmd())
	cmd.AddCommand(newSubtaskCreateCmd())
	cmd.AddCommand(newSubtaskUpdateCmd())
	cmd.AddCommand(newSubtaskDeleteCmd())

	return cmd
}

func printSubtasks(w io.Writer, subtasks []db.Subtask) {
	if len(subtasks) == 0 {
		fmt.Fprintln(w, "No subtasks found.")
		return
	}
	tw := newTable(w, "ID", "STATUS", "TITLE", "ASSIGNEE", "DUE")
	for _, s := range subtasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.Status, truncate(s.Title, 40), dash(s.AssignedToName), formatDate(s.DueDate))
	}
	_ = tw.Flush()
}

func newSubtaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <task-id>",
		Aliases: []string{"ls"},
		Short:   "List the subtasks of a task, newest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				subtasks, err := a.Store.ListSubtasks(ctx, taskID)
				if err != nil {
					return err
				}
				return render(cmd, subtasks, func(w io.Writer) { printSubtasks(w, subtasks) })
			})
		},
	}
}

// subtaskFlags holds the flags shared by create and update.
type subtaskFlags struct {
	description string
	status      string
	assign      string
	due         string
}

func (f *subtaskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "subtask description")
	cmd.Flags().StringVar(&f.status, "status", "", "status: pending, in_progress, review or completed")
	cmd.Flags().StringVar(&f.assign, "assign", "", "assignee user id (empty or 0 clears it)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD (empty clears it)")
}

func (f *subtaskFlags) apply(cmd *cobra.Command, in *db.SubtaskInput) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		in.Description = db.Normalize(f.description)
	}
	if flags.Changed("status") {
		in.Status = db.TaskStatus(f.status)
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

func newSubtaskCreateCmd() *cobra.Command {
	var f subtaskFlags

	cmd := &cobra.Command{
		Use:   "create <task-id> <title>",
		Short: "Create a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := idArg(args, 0, "task_id")
			if err != nil {
				return err
			}

			in := db.SubtaskInput{TaskID: taskID, Title: args[1]}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Store.CreateSubtask(ctx, in)
				if err != nil {
					return err
				}
				return render(cmd, s, func(w io.Writer) {
					printInfo(w, "Created subtask %d: %s [%s]", s.ID, s.Title, s.Status)
				})
			})
		},
	}

	f.register(cmd)
	return cmd
}

func newSubtaskUpdateCmd() *cobra.Command {
	var f subtaskFlags
	var title string

	cmd := &cobra.Command{
		Use:   "update <subtask-id>",
		Short: "Update a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "subtask_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := get(ctx, "subtask", id, a.Store.GetSubtask)
				if err != nil {
					return err
				}

				in := db.SubtaskInput{
					Title:       s.Title,
					Description: s.Description,
					Status:      s.Status,
					AssignedTo:  s.AssignedTo,
					DueDate:     s.DueDate,
				}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if err := f.apply(cmd, &in); err != nil {
					return err
				}

				if err := a.Store.UpdateSubtask(ctx, id, in); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Updated subtask %d", id)
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newSubtaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "subtask_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteSubtask(ctx, id); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Deleted subtask %d", id)
				return nil
			})
		},
	}
}
