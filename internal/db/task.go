package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Task belongs to an issue and is the unit time is tracked against.
type Task struct {
	ID             int64               `json:"id" yaml:"id"`
	IssueID        int64               `json:"issue_id" yaml:"issue_id"`
	Title          string              `json:"title" yaml:"title"`
	Description    Optional[string]    `json:"description" yaml:"description"`
	Status         TaskStatus          `json:"status" yaml:"status"`
	Priority       Priority            `json:"priority" yaml:"priority"`
	AssignedTo     Optional[int64]     `json:"assigned_to" yaml:"assigned_to"`
	AssignedToName Optional[string]    `json:"assigned_to_name" yaml:"assigned_to_name"`
	DueDate        Optional[time.Time] `json:"due_date" yaml:"due_date"`
	CreatedAt      time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" yaml:"updated_at"`
}

// TaskInput holds the fields of a task. IssueID is only read on create.
type TaskInput struct {
	IssueID     int64               `json:"issue_id"`
	Title       string              `json:"title"`
	Description Optional[string]    `json:"description"`
	Status      TaskStatus          `json:"status"`
	Priority    Priority            `json:"priority"`
	AssignedTo  Optional[int64]     `json:"assigned_to"`
	DueDate     Optional[time.Time] `json:"due_date"`
}

func (in *TaskInput) normalize() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	in.Description = in.Description.Normalized()
	in.AssignedTo = in.AssignedTo.Normalized()
	in.DueDate = in.DueDate.Normalized()
	if err := defaultEnum("status", &in.Status, TaskPending); err != nil {
		return err
	}
	return defaultEnum("priority", &in.Priority, PriorityMedium)
}

const taskSelect = `
	SELECT t.id, t.issue_id, t.title, t.description, t.status, t.priority,
	       t.assigned_to, u.name, t.due_date, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN users u ON t.assigned_to = u.id
`

// ListTasks returns the tasks of an issue, newest first.
func (s *Store) ListTasks(ctx context.Context, issueID int64) ([]Task, error) {
	return list(ctx, s.driver, "list tasks", scanTask, taskSelect+`
		WHERE t.issue_id = ?
		ORDER BY t.created_at DESC, t.id DESC
	`, issueID)
}

// ListTasksByProject returns every task under every issue of a project,
// newest first. Board views use it to span issues.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error) {
	return list(ctx, s.driver, "list tasks by project", scanTask, taskSelect+`
		JOIN issues i ON t.issue_id = i.id
		WHERE i.project_id = ?
		ORDER BY t.created_at DESC, t.id DESC
	`, projectID)
}

// GetTask retrieves a task by ID. Returns nil, nil when absent.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	return getOne(ctx, s.driver, "get task", scanTask, taskSelect+`WHERE t.id = ?`, id)
}

// CreateTask inserts a task and returns it as stored.
func (s *Store) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := s.driver.Exec(ctx, `
		INSERT INTO tasks (issue_id, title, description, status, priority, assigned_to, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.IssueID, in.Title, in.Description, in.Status, in.Priority, in.AssignedTo, in.DueDate)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return s.GetTask(ctx, res.InsertedID)
}

// UpdateTask replaces the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, id int64, in TaskInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	res, err := s.driver.Exec(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, assigned_to = ?, due_date = ?,
		    updated_at = `+s.driver.Now()+`
		WHERE id = ?
	`, in.Title, in.Description, in.Status, in.Priority, in.AssignedTo, in.DueDate, id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(res, "task", id)
}

// DeleteTask removes a task with its subtasks and time entries.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.driver.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(res, "task", id)
}

func scanTask(row scanner) (*Task, error) {
	var t Task
	var status, priority sql.NullString
	var createdAt, updatedAt Optional[time.Time]

	err := row.Scan(
		&t.ID, &t.IssueID, &t.Title, &t.Description, &status, &priority,
		&t.AssignedTo, &t.AssignedToName, &t.DueDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = TaskStatus(status.String)
	t.Priority = Priority(priority.String)
	t.CreatedAt = createdAt.V
	t.UpdatedAt = updatedAt.V
	return &t, nil
}
