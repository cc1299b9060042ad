package tool

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/iska-scrum/iska/internal/app"
	"github.com/iska-scrum/iska/internal/config"
	"github.com/iska-scrum/iska/internal/db"
)

// testOpener returns an opener backed by a SQLite database in a temp dir,
// and a counter of how often it was called.
func testOpener(t *testing.T) (Opener, *int) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)

	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(dir, config.DatabaseFileName)
	require.NoError(t, config.NewStore(cfgPath).Save(cfg))

	calls := 0
	return func(ctx context.Context) (*app.App, error) {
		calls++
		return app.Open(ctx, cfgPath)
	}, &calls
}

func runTool(t *testing.T, tl Tool, open Opener, input string) (int, gjson.Result) {
	t.Helper()
	var out bytes.Buffer
	code := Main(context.Background(), tl, strings.NewReader(input), &out, open)

	require.True(t, strings.HasSuffix(out.String(), "\n"), "response is newline terminated")
	require.True(t, gjson.Valid(out.String()), "response is JSON: %s", out.String())
	return code, gjson.Parse(out.String())
}

func TestCreateProject(t *testing.T) {
	open, _ := testOpener(t)

	code, res := runTool(t, CreateProject, open, `{"name":"Alpha","description":"first"}`)
	require.Equal(t, 0, code)
	assert.True(t, res.Get("ok").Bool())
	assert.Equal(t, "Alpha", res.Get("project.name").String())
	assert.Equal(t, "first", res.Get("project.description").String())
	assert.Equal(t, string(db.ProjectActive), res.Get("project.status").String())
	assert.Positive(t, res.Get("project.id").Int())
	assert.True(t, res.Get("project.created_at").Exists())
}

func TestCreateProject_EmptyDescriptionIsNull(t *testing.T) {
	open, _ := testOpener(t)

	code, res := runTool(t, CreateProject, open, `{"name":"Alpha","description":""}`)
	require.Equal(t, 0, code)
	assert.Equal(t, gjson.Null, res.Get("project.description").Type)
}

func TestCreateProject_MissingNameSkipsConnect(t *testing.T) {
	open, calls := testOpener(t)

	code, res := runTool(t, CreateProject, open, `{"description":"no name"}`)
	assert.Equal(t, 1, code)
	assert.False(t, res.Get("ok").Bool())
	assert.Contains(t, res.Get("error").String(), "name")
	assert.Zero(t, *calls, "validation happens before opening the store")
}

func TestCreateProject_InvalidStatus(t *testing.T) {
	open, _ := testOpener(t)

	code, res := runTool(t, CreateProject, open, `{"name":"Alpha","status":"archived"}`)
	assert.Equal(t, 1, code)
	assert.False(t, res.Get("ok").Bool())
	assert.NotEmpty(t, res.Get("error").String())
}

func TestMain_RejectsMalformedInput(t *testing.T) {
	open, calls := testOpener(t)

	for _, input := range []string{`{"name":`, `[1,2]`, `"Alpha"`} {
		code, res := runTool(t, CreateProject, open, input)
		assert.Equal(t, 1, code, input)
		assert.False(t, res.Get("ok").Bool(), input)
	}
	assert.Zero(t, *calls)
}

func TestListIssues(t *testing.T) {
	open, _ := testOpener(t)
	ctx := context.Background()

	a, err := open(ctx)
	require.NoError(t, err)
	p, err := a.Store.CreateProject(ctx, db.ProjectInput{Name: "Alpha"})
	require.NoError(t, err)
	_, err = a.Store.CreateIssue(ctx, db.IssueInput{ProjectID: p.ID, Title: "Fix login"})
	require.NoError(t, err)
	_, err = a.Store.CreateIssue(ctx, db.IssueInput{ProjectID: p.ID, Title: "Add export"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	id := strconv.FormatInt(p.ID, 10)
	for _, input := range []string{
		`{"project_id":` + id + `}`,
		`{"project_id":"` + id + `"}`,
	} {
		code, res := runTool(t, ListIssues, open, input)
		require.Equal(t, 0, code, input)
		issues := res.Get("issues").Array()
		require.Len(t, issues, 2, input)
		assert.Equal(t, "Add export", issues[0].Get("title").String(), "newest first")
		assert.Equal(t, "Fix login", issues[1].Get("title").String())
	}
}

func TestListIssues_ProjectIDRequired(t *testing.T) {
	open, calls := testOpener(t)

	for _, input := range []string{`{}`, `{"project_id":null}`, `{"project_id":"abc"}`, `{"project_id":1.5}`} {
		code, res := runTool(t, ListIssues, open, input)
		assert.Equal(t, 1, code, input)
		assert.Contains(t, res.Get("error").String(), "project_id", input)
	}
	assert.Zero(t, *calls)
}

func TestListIssues_UnknownProjectIsEmpty(t *testing.T) {
	open, _ := testOpener(t)

	code, res := runTool(t, ListIssues, open, `{"project_id":42}`)
	require.Equal(t, 0, code)
	assert.Equal(t, "[]", res.Get("issues").Raw)
}

func TestListProjects(t *testing.T) {
	open, _ := testOpener(t)

	code, res := runTool(t, ListProjects, open, "")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"ok":true,"projects":[]}`, res.Raw)

	_, _ = runTool(t, CreateProject, open, `{"name":"Alpha"}`)
	_, _ = runTool(t, CreateProject, open, `{"name":"Beta"}`)

	code, res = runTool(t, ListProjects, open, "  \n")
	require.Equal(t, 0, code)
	names := res.Get("projects.#.name").Array()
	require.Len(t, names, 2)
	assert.Equal(t, "Beta", names[0].String())
}

func TestMain_OpenFailure(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	cfg := config.Default()
	cfg.Type = config.BackendPostgreSQL
	cfg.PostgreSQL.Host = "127.0.0.1"
	cfg.PostgreSQL.Port = 1
	require.NoError(t, config.NewStore(cfgPath).Save(cfg))

	open := func(ctx context.Context) (*app.App, error) { return app.Open(ctx, cfgPath) }
	code, res := runTool(t, ListProjects, open, "{}")
	assert.Equal(t, 1, code)
	assert.False(t, res.Get("ok").Bool())
	assert.NotEmpty(t, res.Get("error").String())
}

func TestInt64Field(t *testing.T) {
	req := gjson.Parse(`{"a":7,"b":" 8 ","c":true}`)

	n, err := int64Field(req, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = int64Field(req, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	_, err = int64Field(req, "c")
	assert.Error(t, err)
}
