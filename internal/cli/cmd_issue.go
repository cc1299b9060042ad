package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
)

// newIssueCmd creates the issue command with subcommands.
func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Aliases: []string{"issues"},
		Short:   "Manage the issues of a project",
	}

	cmd.AddCommand(newIssueListCmd())
	cmd.AddCommand(newIssueShowCmd())
	cmd.AddCommand(newIssueCreateCmd())
	cmd.AddCommand(newIssueUpdateCmd())
	cmd.AddCommand(newIssueDeleteCmd())

	return cmd
}

func printIssues(w io.Writer, issues []db.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	tw := newTable(w, "ID", "STATUS", "PRIORITY", "TITLE", "ASSIGNEE", "CREATED BY")
	for _, i := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i.ID, i.Status, i.Priority, truncate(i.Title, 40), dash(i.AssignedToName), dash(i.CreatedByName))
	}
	_ = tw.Flush()
}

func newIssueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <project-id>",
		Aliases: []string{"ls"},
		Short:   "List the issues of a project, newest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				issues, err := a.Store.ListIssues(ctx, projectID)
				if err != nil {
					return err
				}
				return render(cmd, issues, func(w io.Writer) { printIssues(w, issues) })
			})
		},
	}
}

func newIssueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <issue-id>",
		Short: "Show an issue and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "issue_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				i, err := get(ctx, "issue", id, a.Store.GetIssue)
				if err != nil {
					return err
				}
				tasks, err := a.Store.ListTasks(ctx, id)
				if err != nil {
					return err
				}

				view := struct {
					db.Issue `yaml:",inline"`
					Tasks    []db.Task `json:"tasks" yaml:"tasks"`
				}{*i, tasks}
				return render(cmd, view, func(w io.Writer) {
					printTitle(w, fmt.Sprintf("Issue %d: %s", i.ID, i.Title))
					fmt.Fprintf(w, "Project:     %d\n", i.ProjectID)
					fmt.Fprintf(w, "Status:      %s\n", i.Status)
					fmt.Fprintf(w, "Priority:    %s\n", i.Priority)
					fmt.Fprintf(w, "Assignee:    %s\n", dash(i.AssignedToName))
					fmt.Fprintf(w, "Created by:  %s\n", dash(i.CreatedByName))
					fmt.Fprintf(w, "Description: %s\n\n", dash(i.Description))
					printTasks(w, tasks)
				})
			})
		},
	}
}

// issueFlags holds the flags shared by create and update.
type issueFlags struct {
	description string
	status      string
	priority    string
	assign      string
}

func (f *issueFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "issue description")
	cmd.Flags().StringVar(&f.status, "status", "", "status: open, in_progress, review or closed")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "priority: low, medium, high or critical")
	cmd.Flags().StringVar(&f.assign, "assign", "", "assignee user id (empty or 0 clears it)")
}

// apply copies the flags the user set onto in.
func (f *issueFlags) apply(cmd *cobra.Command, in *db.IssueInput) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		in.Description = db.Normalize(f.description)
	}
	if flags.Changed("status") {
		in.Status = db.IssueStatus(f.status)
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
	return nil
}

func newIssueCreateCmd() *cobra.Command {
	var f issueFlags
	var createdBy int64

	cmd := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Create an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}

			in := db.IssueInput{ProjectID: projectID, Title: args[1], CreatedBy: db.Normalize(createdBy)}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				i, err := a.Store.CreateIssue(ctx, in)
				if err != nil {
					return err
				}
				return render(cmd, i, func(w io.Writer) {
					printInfo(w, "Created issue %d: %s [%s, %s]", i.ID, i.Title, i.Status, i.Priority)
				})
			})
		},
	}

	f.register(cmd)
	cmd.Flags().Int64Var(&createdBy, "by", 0, "creator user id")
	return cmd
}

func newIssueUpdateCmd() *cobra.Command {
	var f issueFlags
	var title string

	cmd := &cobra.Command{
		Use:   "update <issue-id>",
		Short: "Update an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "issue_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				i, err := get(ctx, "issue", id, a.Store.GetIssue)
				if err != nil {
					return err
				}

				in := db.IssueInput{
					Title:       i.Title,
					Description: i.Description,
					Status:      i.Status,
					Priority:    i.Priority,
					AssignedTo:  i.AssignedTo,
				}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if err := f.apply(cmd, &in); err != nil {
					return err
				}

				if err := a.Store.UpdateIssue(ctx, id, in); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Updated issue %d", id)
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newIssueDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <issue-id>",
		Short: "Delete an issue with its tasks, subtasks and time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "issue_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteIssue(ctx, id); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Deleted issue %d", id)
				return nil
			})
		},
	}
}
