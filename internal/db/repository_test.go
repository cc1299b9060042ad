package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// hierarchy is a project with one issue, task and subtask.
type hierarchy struct {
	user    *User
	project *Project
	issue   *Issue
	task    *Task
	subtask *Subtask
}

func seedHierarchy(t *testing.T, store *Store) hierarchy {
	t.Helper()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, UserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	project, err := store.CreateProject(ctx, ProjectInput{Name: "Sprint 1"})
	require.NoError(t, err)
	issue, err := store.CreateIssue(ctx, IssueInput{
		ProjectID:  project.ID,
		Title:      "Fix login bug",
		Priority:   PriorityHigh,
		CreatedBy:  Some(user.ID),
		AssignedTo: Some(user.ID),
	})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, TaskInput{IssueID: issue.ID, Title: "Patch auth module", AssignedTo: Some(user.ID)})
	require.NoError(t, err)
	subtask, err := store.CreateSubtask(ctx, SubtaskInput{TaskID: task.ID, Title: "Write regression test"})
	require.NoError(t, err)

	return hierarchy{user: user, project: project, issue: issue, task: task, subtask: subtask}
}

func TestUser_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)

	u, err := store.CreateUser(ctx, UserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Positive(t, u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, RoleMember, u.Role, "role defaults to member")
	assert.False(t, u.CreatedAt.IsZero())

	require.NoError(t, store.UpdateUser(ctx, u.ID, UserInput{Name: "Ada L.", Email: "ada@example.com", Role: RoleScrumMaster}))
	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, RoleScrumMaster, got.Role)

	require.NoError(t, store.DeleteUser(ctx, u.ID))
	got, err = store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUser_DuplicateEmailPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)

	_, err := store.CreateUser(ctx, UserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, UserInput{Name: "Other", Email: "ada@example.com"})
	require.Error(t, err)
	assert.Nil(t, iskaerrors.AsError(err), "constraint violations are not translated")
	assert.Contains(t, err.Error(), "create user")
}

func TestUser_InvalidRole(t *testing.T) {
	t.Parallel()
	store := NewTestStore(t)

	_, err := store.CreateUser(context.Background(), UserInput{Name: "Ada", Email: "a@x", Role: "owner"})
	require.Error(t, err)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeInvalidInput))

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users, "nothing should be written")
}

func TestProject_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)

	p, err := store.CreateProject(ctx, ProjectInput{Name: "Sprint 1", Description: Some("Q4 goals")})
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1", p.Name)
	assert.Equal(t, Some("Q4 goals"), p.Description)
	assert.Equal(t, ProjectActive, p.Status, "status defaults to active")

	bare, err := store.CreateProject(ctx, ProjectInput{Name: "Sprint 2", Description: Some("")})
	require.NoError(t, err)
	assert.False(t, bare.Description.Valid, "empty description is stored as no value")

	var isNull bool
	require.NoError(t, store.Driver().QueryRow(ctx,
		`SELECT description IS NULL FROM projects WHERE id = ?`, bare.ID).Scan(&isNull))
	assert.True(t, isNull)
}

func TestProject_ListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)

	for _, name := range []string{"first", "second", "third"} {
		_, err := store.CreateProject(ctx, ProjectInput{Name: name})
		require.NoError(t, err)
	}

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "third", projects[0].Name)
	assert.Equal(t, "first", projects[2].Name)
}

func TestProject_UpdateAndNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)

	p, err := store.CreateProject(ctx, ProjectInput{Name: "Sprint 1", Description: Some("x")})
	require.NoError(t, err)

	require.NoError(t, store.UpdateProject(ctx, p.ID, ProjectInput{Name: "Sprint 1b", Status: ProjectCompleted}))
	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1b", got.Name)
	assert.Equal(t, ProjectCompleted, got.Status)
	assert.False(t, got.Description.Valid, "full replace clears omitted optional fields")

	err = store.UpdateProject(ctx, 9999, ProjectInput{Name: "ghost"})
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeNotFound))

	err = store.DeleteProject(ctx, 9999)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeNotFound))

	err = store.UpdateProject(ctx, p.ID, ProjectInput{Name: "x", Status: "archived"})
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeInvalidInput))
}

func TestProject_RequiresName(t *testing.T) {
	t.Parallel()
	store := NewTestStore(t)

	_, err := store.CreateProject(context.Background(), ProjectInput{})
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeInvalidInput))
}

func TestIssue_DefaultsAndJoins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	assert.Equal(t, IssueOpen, h.issue.Status, "status defaults to open")
	assert.Equal(t, PriorityHigh, h.issue.Priority)
	assert.Equal(t, h.project.ID, h.issue.ProjectID)
	assert.Equal(t, Some("Ada"), h.issue.CreatedByName)
	assert.Equal(t, Some("Ada"), h.issue.AssignedToName)

	plain, err := store.CreateIssue(ctx, IssueInput{ProjectID: h.project.ID, Title: "Unassigned"})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, plain.Priority, "priority defaults to medium")
	assert.False(t, plain.AssignedTo.Valid)
	assert.False(t, plain.AssignedToName.Valid, "no assignee yields no name")

	issues, err := store.ListIssues(ctx, h.project.ID)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "Unassigned", issues[0].Title)
	assert.Equal(t, "Fix login bug", issues[1].Title)
}

func TestIssue_OptionalNormalization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	issue, err := store.CreateIssue(ctx, IssueInput{
		ProjectID:   h.project.ID,
		Title:       "Normalize me",
		Description: Some(""),
		AssignedTo:  Some(int64(0)),
	})
	require.NoError(t, err)

	var assigneeNull, descNull bool
	require.NoError(t, store.Driver().QueryRow(ctx,
		`SELECT assigned_to IS NULL, description IS NULL FROM issues WHERE id = ?`, issue.ID,
	).Scan(&assigneeNull, &descNull))
	assert.True(t, assigneeNull)
	assert.True(t, descNull)

	got, err := store.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	_, ok := got.AssignedTo.Get()
	assert.False(t, ok, "reads back as no assignee")
}

func TestIssue_MissingParentPropagates(t *testing.T) {
	t.Parallel()
	store := NewTestStore(t)

	_, err := store.CreateIssue(context.Background(), IssueInput{ProjectID: 404, Title: "Orphan"})
	require.Error(t, err)
	assert.Nil(t, iskaerrors.AsError(err))
	assert.Contains(t, err.Error(), "create issue")
}

func TestIssue_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	err := store.UpdateIssue(ctx, h.issue.ID, IssueInput{
		Title:    "Fix login bug (SSO)",
		Status:   IssueReview,
		Priority: PriorityCritical,
	})
	require.NoError(t, err)

	got, err := store.GetIssue(ctx, h.issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix login bug (SSO)", got.Title)
	assert.Equal(t, IssueReview, got.Status)
	assert.Equal(t, PriorityCritical, got.Priority)
	assert.False(t, got.AssignedTo.Valid)
	assert.Equal(t, Some(h.user.ID), got.CreatedBy, "creator is not touched by updates")
}

func TestTask_CRUDAndByProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	assert.Equal(t, TaskPending, h.task.Status)
	assert.Equal(t, PriorityMedium, h.task.Priority)
	assert.Equal(t, Some("Ada"), h.task.AssignedToName)

	second, err := store.CreateIssue(ctx, IssueInput{ProjectID: h.project.ID, Title: "Second issue"})
	require.NoError(t, err)
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	other, err := store.CreateTask(ctx, TaskInput{IssueID: second.ID, Title: "Other", DueDate: Some(due)})
	require.NoError(t, err)
	require.True(t, other.DueDate.Valid)
	assert.True(t, due.Equal(other.DueDate.V))

	elsewhere, err := store.CreateProject(ctx, ProjectInput{Name: "Elsewhere"})
	require.NoError(t, err)
	elsewhereIssue, err := store.CreateIssue(ctx, IssueInput{ProjectID: elsewhere.ID, Title: "x"})
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, TaskInput{IssueID: elsewhereIssue.ID, Title: "not mine"})
	require.NoError(t, err)

	tasks, err := store.ListTasksByProject(ctx, h.project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Other", tasks[0].Title)
	assert.Equal(t, "Patch auth module", tasks[1].Title)

	byIssue, err := store.ListTasks(ctx, h.issue.ID)
	require.NoError(t, err)
	require.Len(t, byIssue, 1)

	require.NoError(t, store.UpdateTask(ctx, h.task.ID, TaskInput{Title: "Patch auth", Status: TaskInProgress, Priority: PriorityLow}))
	got, err := store.GetTask(ctx, h.task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, got.Status)
	assert.Equal(t, PriorityLow, got.Priority)

	require.NoError(t, store.DeleteTask(ctx, other.ID))
	tasks, err = store.ListTasksByProject(ctx, h.project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSubtask_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	assert.Equal(t, TaskPending, h.subtask.Status, "status defaults to pending")
	assert.False(t, h.subtask.AssignedToName.Valid)

	err := store.UpdateSubtask(ctx, h.subtask.ID, SubtaskInput{Title: "Write test", Status: TaskCompleted, AssignedTo: Some(h.user.ID)})
	require.NoError(t, err)

	subtasks, err := store.ListSubtasks(ctx, h.task.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, TaskCompleted, subtasks[0].Status)
	assert.Equal(t, Some("Ada"), subtasks[0].AssignedToName)

	_, err = store.CreateSubtask(ctx, SubtaskInput{TaskID: h.task.ID, Title: "x", Status: "blocked"})
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeInvalidInput))

	require.NoError(t, store.DeleteSubtask(ctx, h.subtask.ID))
	subtasks, err = store.ListSubtasks(ctx, h.task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)
}

func TestDeleteProject_Cascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	entry, err := store.InsertTimeEntry(ctx, h.task.ID, h.user.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.DeleteProject(ctx, h.project.ID))

	issues, err := store.ListIssues(ctx, h.project.ID)
	require.NoError(t, err)
	assert.Empty(t, issues)

	for _, table := range []string{"issues", "tasks", "subtasks", "time_entries"} {
		var count int
		require.NoError(t, store.Driver().QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, "orphans left in %s", table)
	}

	gone, err := store.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	u, err := store.GetUser(ctx, h.user.ID)
	require.NoError(t, err)
	assert.NotNil(t, u, "users are not owned by projects")
}

func TestDeleteUser_WithTimeEntriesFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewTestStore(t)
	h := seedHierarchy(t, store)

	_, err := store.InsertTimeEntry(ctx, h.task.ID, h.user.ID, time.Now())
	require.NoError(t, err)

	err = store.DeleteUser(ctx, h.user.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete user")
}
