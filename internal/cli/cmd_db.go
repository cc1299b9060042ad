package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
)

// newDBCmd creates the db command with subcommands.
func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the database",
	}
	cmd.AddCommand(newDBStatusCmd())
	return cmd
}

type dbStatus struct {
	Backend string          `json:"backend" yaml:"backend"`
	Config  string          `json:"config" yaml:"config"`
	Tables  []db.TableCount `json:"tables" yaml:"tables"`
}

// newDBStatusCmd creates the 'db status' subcommand.
func newDBStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active backend and table sizes",
		Long: `Connect to the configured backend, provision any missing tables and
report the row count of each table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				counts, err := a.Store.RowCounts(ctx)
				if err != nil {
					return err
				}

				status := dbStatus{
					Backend: string(a.Store.Dialect()),
					Config:  a.Config.Path(),
					Tables:  counts,
				}
				return render(cmd, status, func(w io.Writer) {
					printTitle(w, fmt.Sprintf("Backend: %s", status.Backend))
					fmt.Fprintf(w, "Config:  %s\n\n", status.Config)
					tw := newTable(w, "TABLE", "ROWS")
					for _, c := range counts {
						fmt.Fprintf(tw, "%s\t%d\n", c.Table, c.Rows)
					}
					_ = tw.Flush()
				})
			})
		},
	}
}
