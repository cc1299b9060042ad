package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
)

// newProjectCmd creates the project command with subcommands.
func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())

	return cmd
}

func printProjects(w io.Writer, projects []db.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found. Create one with: iska project create \"Name\"")
		return
	}
	tw := newTable(w, "ID", "STATUS", "NAME", "DESCRIPTION", "CREATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Status, truncate(p.Name, 30), truncate(dash(p.Description), 40), p.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				projects, err := a.Store.ListProjects(ctx)
				if err != nil {
					return err
				}
				return render(cmd, projects, func(w io.Writer) { printProjects(w, projects) })
			})
		},
	}
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := get(ctx, "project", id, a.Store.GetProject)
				if err != nil {
					return err
				}
				issues, err := a.Store.ListIssues(ctx, id)
				if err != nil {
					return err
				}

				view := struct {
					db.Project `yaml:",inline"`
					Issues     []db.Issue `json:"issues" yaml:"issues"`
				}{*p, issues}
				return render(cmd, view, func(w io.Writer) {
					printTitle(w, fmt.Sprintf("Project %d: %s", p.ID, p.Name))
					fmt.Fprintf(w, "Status:      %s\n", p.Status)
					fmt.Fprintf(w, "Description: %s\n", dash(p.Description))
					fmt.Fprintf(w, "Created:     %s\n\n", db.FormatTimestamp(p.CreatedAt))
					printIssues(w, issues)
				})
			})
		},
	}
}

func newProjectCreateCmd() *cobra.Command {
	var description, status string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Store.CreateProject(ctx, db.ProjectInput{
					Name:        args[0],
					Description: db.Normalize(description),
					Status:      db.ProjectStatus(status),
				})
				if err != nil {
					return err
				}
				return render(cmd, p, func(w io.Writer) {
					printInfo(w, "Created project %d: %s", p.ID, p.Name)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&status, "status", "", "status: active, inactive or completed (default active)")
	return cmd
}

func newProjectUpdateCmd() *cobra.Command {
	var name, description, status string

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := get(ctx, "project", id, a.Store.GetProject)
				if err != nil {
					return err
				}

				in := db.ProjectInput{Name: p.Name, Description: p.Description, Status: p.Status}
				flags := cmd.Flags()
				if flags.Changed("name") {
					in.Name = name
				}
				if flags.Changed("description") {
					in.Description = db.Normalize(description)
				}
				if flags.Changed("status") {
					in.Status = db.ProjectStatus(status)
				}

				if err := a.Store.UpdateProject(ctx, id, in); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Updated project %d", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description (empty clears it)")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its issues, tasks, subtasks and time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "project_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteProject(ctx, id); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Deleted project %d", id)
				return nil
			})
		},
	}
}
