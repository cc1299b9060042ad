package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/iska-scrum/iska/internal/db"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// currentFormat resolves --json, --output and ISKA_OUTPUT, in that order.
func currentFormat() (outputFormat, error) {
	if jsonOut {
		return formatJSON, nil
	}
	switch f := outputFormat(strings.ToLower(viper.GetString("output"))); f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", iskaerrors.ErrInvalidInput("output", fmt.Sprintf("unknown format %q (want table, json or yaml)", f))
	}
}

// render writes v as JSON or YAML when requested, and otherwise calls table.
func render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	format, err := currentFormat()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		table(out)
		return nil
	}
}

// newTable returns a tabwriter with the header row and an underline written.
func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	rules := make([]string, len(headers))
	for i, h := range headers {
		rules[i] = strings.Repeat("─", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	return tw
}

// printTitle prints a heading, styled when w is a terminal.
func printTitle(w io.Writer, title string) {
	if isTerminal(w) {
		title = titleStyle.Render(title)
	}
	fmt.Fprintln(w, title)
}

// printInfo prints a status line unless --quiet is set.
func printInfo(w io.Writer, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// dash renders an absent optional as "-".
func dash[T comparable](o db.Optional[T]) string {
	if !o.Valid {
		return "-"
	}
	return o.String()
}

// formatDate renders an optional timestamp as a calendar date.
func formatDate(o db.Optional[time.Time]) string {
	if !o.Valid {
		return "-"
	}
	return o.V.Format(time.DateOnly)
}

// parseOptionalDate reads a --due style value. An empty string clears it.
func parseOptionalDate(field, s string) (db.Optional[time.Time], error) {
	if strings.TrimSpace(s) == "" {
		return db.None[time.Time](), nil
	}
	t, err := db.ParseTimestamp(s)
	if err != nil {
		return db.None[time.Time](), iskaerrors.ErrInvalidInput(field, fmt.Sprintf("%q is not a date (want YYYY-MM-DD)", s))
	}
	return db.Some(t), nil
}

// parseOptionalID reads an --assign style value. An empty string or 0 clears it.
func parseOptionalID(field, s string) (db.Optional[int64], error) {
	if s = strings.TrimSpace(s); s == "" || s == "0" {
		return db.None[int64](), nil
	}
	id, err := parseID(s, field)
	if err != nil {
		return db.None[int64](), err
	}
	return db.Some(id), nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, iskaerrors.ErrInvalidInput(what, fmt.Sprintf("%q is not a valid id", arg))
	}
	return id, nil
}
