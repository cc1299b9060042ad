// Package cli implements the iska command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	jsonOut bool
)

// newRootCmd builds the command tree. Flags bind to package state, so each
// call resets them to their defaults.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "iska",
		Short: "Scrum project tracker with built-in time tracking",
		Long: `iska manages projects, issues, tasks and subtasks and tracks the time
team members spend on each task.

Data lives in SQLite by default. MySQL and PostgreSQL are supported through
the configuration file (~/.iska-scrum/config.json).

Quick start:
  iska user create "Ada" ada@example.com
  iska project create "Sprint 1"
  iska issue create 1 "Fix login bug" --priority high
  iska task create 1 "Patch auth module"
  iska timer start 1 --user 1
  iska timer stop 1 --user 1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ~/.iska-scrum/config.json, or $ISKA_CONFIG)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	flags.BoolVar(&jsonOut, "json", false, "output as JSON")
	flags.StringP("output", "o", string(formatTable), "output format: table, json or yaml")
	_ = viper.BindPFlag("output", flags.Lookup("output"))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newIssueCmd())
	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newSubtaskCmd())
	rootCmd.AddCommand(newTimerCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the command line and reports any error on stderr.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		PrintError(err)
	}
	return err
}

// initConfig sets up logging and the environment-backed CLI settings.
// ISKA_OUTPUT and ISKA_USER provide defaults for --output and --user.
func initConfig() error {
	viper.SetEnvPrefix("ISKA")
	viper.AutomaticEnv()

	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if _, err := currentFormat(); err != nil {
		return err
	}
	if verbose && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", cfgFile)
	}
	return nil
}
