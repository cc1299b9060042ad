package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
)

// newUserCmd creates the user command with subcommands.
func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage team members",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserShowCmd())
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

func printUsers(w io.Writer, users []db.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found. Create one with: iska user create \"Name\" email@example.com")
		return
	}
	tw := newTable(w, "ID", "NAME", "EMAIL", "ROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, truncate(u.Name, 30), u.Email, u.Role)
	}
	_ = tw.Flush()
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				users, err := a.Store.ListUsers(ctx)
				if err != nil {
					return err
				}
				return render(cmd, users, func(w io.Writer) { printUsers(w, users) })
			})
		},
	}
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "user_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := get(ctx, "user", id, a.Store.GetUser)
				if err != nil {
					return err
				}
				return render(cmd, u, func(w io.Writer) { printUsers(w, []db.User{*u}) })
			})
		},
	}
}

func newUserCreateCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "create <name> <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := a.Store.CreateUser(ctx, db.UserInput{
					Name:  args[0],
					Email: args[1],
					Role:  db.UserRole(role),
				})
				if err != nil {
					return err
				}
				return render(cmd, u, func(w io.Writer) {
					printInfo(w, "Created user %d: %s <%s> (%s)", u.ID, u.Name, u.Email, u.Role)
				})
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "role: member, admin or scrum_master (default member)")
	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "user_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := get(ctx, "user", id, a.Store.GetUser)
				if err != nil {
					return err
				}

				in := db.UserInput{Name: u.Name, Email: u.Email, Role: u.Role}
				flags := cmd.Flags()
				if flags.Changed("name") {
					in.Name = name
				}
				if flags.Changed("email") {
					in.Email = email
				}
				if flags.Changed("role") {
					in.Role = db.UserRole(role)
				}

				if err := a.Store.UpdateUser(ctx, id, in); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Updated user %d", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&role, "role", "", "new role")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Long: `Delete a user. A user still referenced by an issue, task, subtask or
time entry cannot be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0, "user_id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteUser(ctx, id); err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "Deleted user %d", id)
				return nil
			})
		},
	}
}
