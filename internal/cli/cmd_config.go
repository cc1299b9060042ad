package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/config"
	"github.com/iska-scrum/iska/internal/db/driver"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage the backend configuration",
		Long: `View and manage the backend configuration.

The configuration file is JSON (comments and trailing commas are accepted).
Environment variables (ISKA_DB_TYPE, ISKA_SQLITE_PATH, ISKA_MYSQL_HOST, ...)
override file values for a single run and are never saved.

Examples:
  iska config show --source
  iska config get mysql.host
  iska config set mysql.host db.internal
  iska config set-backend postgresql
  iska config test --all`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigSetBackendCmd())
	cmd.AddCommand(newConfigTestCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func configStore() *config.Store {
	if cfgFile != "" {
		return config.NewStore(cfgFile)
	}
	return config.NewDefaultStore()
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd() *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := configStore().LoadTracked()
			if err != nil {
				return err
			}

			return render(cmd, tc.Config, func(w io.Writer) {
				printConfig(w, tc, showSource)
			})
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "show where each value comes from")
	return cmd
}

func printConfig(w io.Writer, tc *config.TrackedConfig, showSource bool) {
	headers := []string{"KEY", "VALUE"}
	if showSource {
		headers = append(headers, "SOURCE")
	}
	tw := newTable(w, headers...)
	for _, key := range config.Keys {
		value, _ := tc.Config.GetValue(key)
		if isSecret(key) && value != "" {
			value = "********"
		}
		if showSource {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", key, value, tc.GetSource(key))
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", key, value)
		}
	}
	_ = tw.Flush()
}

func isSecret(key string) bool {
	return key == "mysql.password" || key == "postgresql.password"
}

// newConfigGetCmd creates the 'config get' subcommand.
func newConfigGetCmd() *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := configStore().LoadTracked()
			if err != nil {
				return err
			}

			value, err := tc.Config.GetValue(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showSource {
				fmt.Fprintf(out, "%s (from %s)\n", value, tc.GetSource(args[0]))
				return nil
			}
			fmt.Fprintln(out, value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "show where the value comes from")
	return cmd
}

// newConfigSetCmd creates the 'config set' subcommand.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the file",
		Long: `Set a configuration value and save the file.

Keys:
  type
  sqlite.path
  mysql.host, mysql.port, mysql.user, mysql.password, mysql.database
  postgresql.host, postgresql.port, postgresql.user, postgresql.password, postgresql.database`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, args[0], args[1])
		},
	}
}

// newConfigSetBackendCmd creates the 'config set-backend' subcommand.
func newConfigSetBackendCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-backend <sqlite|mysql|postgresql>",
		Short:     "Switch the active database backend",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sqlite", "mysql", "postgresql"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, "type", args[0])
		},
	}
}

func setConfigValue(cmd *cobra.Command, key, value string) error {
	store := configStore()
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	saved, _ := cfg.GetValue(key)
	if isSecret(key) {
		saved = "********"
	}
	printInfo(cmd.OutOrStdout(), "Set %s = %s in %s", key, saved, store.Path())
	return nil
}

// newConfigTestCmd creates the 'config test' subcommand.
func newConfigTestCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the database connection",
		Long: `Open and close a connection to the configured backend.

With --all every backend block is probed concurrently, whichever is active.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := configStore().LoadTracked()
			if err != nil {
				return err
			}

			results, err := probeBackends(cmd.Context(), tc.Config, all)
			if err != nil {
				return err
			}

			rendered := make(map[string]driver.ConnectionResult, len(results))
			for b, r := range results {
				rendered[string(b)] = r
			}
			if err := render(cmd, rendered, func(w io.Writer) {
				tw := newTable(w, "BACKEND", "STATUS", "MESSAGE")
				for _, b := range config.Backends {
					r, ok := results[b]
					if !ok {
						continue
					}
					status := "ok"
					if !r.Success {
						status = "failed"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", b, status, truncate(r.Message, 60))
				}
				_ = tw.Flush()
			}); err != nil {
				return err
			}

			for _, r := range results {
				if !r.Success {
					return errConnectionTestFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "test every backend, not only the active one")
	return cmd
}

var errConnectionTestFailed = errors.New("connection test failed")

func probeBackends(ctx context.Context, cfg *config.Config, all bool) (map[config.Backend]driver.ConnectionResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if all {
		return driver.TestAll(ctx, cfg), nil
	}

	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}
	return map[config.Backend]driver.ConnectionResult{backend: driver.TestConnection(cfg)}, nil
}

// newConfigPathCmd creates the 'config path' subcommand.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configStore().Path())
			return nil
		},
	}
}
