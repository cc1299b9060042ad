// Package tool implements the standalone JSON commands. Each reads one JSON
// request from stdin, runs a single store operation against a freshly opened
// app and writes {"ok":true,...} or {"ok":false,"error":...} to stdout.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/db"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// Opener opens the app for a single request.
type Opener func(ctx context.Context) (*app.App, error)

// Tool is one JSON command.
type Tool struct {
	Name string
	// Key names the result field of a successful response.
	Key string
	// Validate checks the request before any connection is made.
	Validate func(req gjson.Result) error
	Run      func(ctx context.Context, a *app.App, req gjson.Result) (any, error)
}

// Exec runs t as a process and exits with its status. An interactive stdin
// is treated as an empty request.
func Exec(t Tool) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var stdin io.Reader = os.Stdin
	if fd := os.Stdin.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		stdin = nil
	}

	open := func(ctx context.Context) (*app.App, error) {
		return app.Open(ctx, "")
	}
	os.Exit(Main(context.Background(), t, stdin, os.Stdout, open))
}

// Main runs t and returns the process exit code.
func Main(ctx context.Context, t Tool, stdin io.Reader, stdout io.Writer, open Opener) int {
	result, err := run(ctx, t, stdin, open)
	if err != nil {
		slog.Debug("tool failed", "tool", t.Name, "error", err)
		writeFailure(stdout, err)
		return 1
	}

	if err := writeSuccess(stdout, t.Key, result); err != nil {
		writeFailure(stdout, err)
		return 1
	}
	return 0
}

func run(ctx context.Context, t Tool, stdin io.Reader, open Opener) (any, error) {
	req, err := readRequest(stdin)
	if err != nil {
		return nil, err
	}

	if t.Validate != nil {
		if err := t.Validate(req); err != nil {
			return nil, err
		}
	}

	a, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close() }()

	return t.Run(ctx, a, req)
}

// readRequest parses stdin. Empty input is treated as {}.
func readRequest(r io.Reader) (gjson.Result, error) {
	var raw []byte
	if r != nil {
		var err error
		if raw, err = io.ReadAll(r); err != nil {
			return gjson.Result{}, fmt.Errorf("read request: %w", err)
		}
	}

	s := strings.TrimSpace(string(raw))
	if s == "" {
		s = "{}"
	}
	if !gjson.Valid(s) {
		return gjson.Result{}, iskaerrors.ErrInvalidInput("request", "stdin is not valid JSON")
	}

	req := gjson.Parse(s)
	if !req.IsObject() {
		return gjson.Result{}, iskaerrors.ErrInvalidInput("request", "expected a JSON object")
	}
	return req, nil
}

func writeSuccess(w io.Writer, key string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	keyJSON, _ := json.Marshal(key)
	_, err = fmt.Fprintf(w, `{"ok":true,%s:%s}`+"\n", keyJSON, data)
	return err
}

func writeFailure(w io.Writer, err error) {
	data, _ := json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{Error: err.Error()})
	_, _ = fmt.Fprintf(w, "%s\n", data)
}

// int64Field reads an integer that may be sent as a number or a numeric string.
func int64Field(req gjson.Result, field string) (int64, error) {
	v := req.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, iskaerrors.ErrMissingField(field)
	}

	switch v.Type {
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return 0, iskaerrors.ErrInvalidInput(field, "must be an integer")
		}
		return v.Int(), nil
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, iskaerrors.ErrInvalidInput(field, "must be an integer")
		}
		return n, nil
	default:
		return 0, iskaerrors.ErrInvalidInput(field, "must be an integer")
	}
}

// CreateProject creates a project from {name, description?, status?}.
var CreateProject = Tool{
	Name: "create-project",
	Key:  "project",
	Validate: func(req gjson.Result) error {
		if req.Get("name").String() == "" {
			return iskaerrors.ErrMissingField("name")
		}
		return nil
	},
	Run: func(ctx context.Context, a *app.App, req gjson.Result) (any, error) {
		return a.Store.CreateProject(ctx, db.ProjectInput{
			Name:        req.Get("name").String(),
			Description: db.Normalize(req.Get("description").String()),
			Status:      db.ProjectStatus(req.Get("status").String()),
		})
	},
}

// ListIssues lists the issues of {project_id}.
var ListIssues = Tool{
	Name: "list-issues",
	Key:  "issues",
	Validate: func(req gjson.Result) error {
		_, err := int64Field(req, "project_id")
		return err
	},
	Run: func(ctx context.Context, a *app.App, req gjson.Result) (any, error) {
		projectID, err := int64Field(req, "project_id")
		if err != nil {
			return nil, err
		}
		return a.Store.ListIssues(ctx, projectID)
	},
}

// ListProjects lists every project. The request body is ignored.
var ListProjects = Tool{
	Name: "list-projects",
	Key:  "projects",
	Run: func(ctx context.Context, a *app.App, _ gjson.Result) (any, error) {
		return a.Store.ListProjects(ctx)
	},
}
