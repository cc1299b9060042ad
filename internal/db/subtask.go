package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Subtask is a checklist item under a task.
type Subtask struct {
	ID             int64               `json:"id" yaml:"id"`
	TaskID         int64               `json:"task_id" yaml:"task_id"`
	Title          string              `json:"title" yaml:"title"`
	Description    Optional[string]    `json:"description" yaml:"description"`
	Status         TaskStatus          `json:"status" yaml:"status"`
	AssignedTo     Optional[int64]     `json:"assigned_to" yaml:"assigned_to"`
	AssignedToName Optional[string]    `json:"assigned_to_name" yaml:"assigned_to_name"`
	DueDate        Optional[time.Time] `json:"due_date" yaml:"due_date"`
	CreatedAt      time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" yaml:"updated_at"`
}

// SubtaskInput holds the fields of a subtask. TaskID is only read on create.
type SubtaskInput struct {
	TaskID      int64               `json:"task_id"`
	Title       string              `json:"title"`
	Description Optional[string]    `json:"description"`
	Status      TaskStatus          `json:"status"`
	AssignedTo  Optional[int64]     `json:"assigned_to"`
	DueDate     Optional[time.Time] `json:"due_date"`
}

func (in *SubtaskInput) normalize() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	in.Description = in.Description.Normalized()
	in.AssignedTo = in.AssignedTo.Normalized()
	in.DueDate = in.DueDate.Normalized()
	return defaultEnum("status", &in.Status, TaskPending)
}

const subtaskSelect = `
	SELECT s.id, s.task_id, s.title, s.description, s.status,
	       s.assigned_to, u.name, s.due_date, s.created_at, s.updated_at
	FROM subtasks s
	LEFT JOIN users u ON s.assigned_to = u.id
`

// ListSubtasks returns the subtasks of a task, newest first.
func (s *Store) ListSubtasks(ctx context.Context, taskID int64) ([]Subtask, error) {
	return list(ctx, s.driver, "list subtasks", scanSubtask, subtaskSelect+`
		WHERE s.task_id = ?
		ORDER BY s.created_at DESC, s.id DESC
	`, taskID)
}

// GetSubtask retrieves a subtask by ID. Returns nil, nil when absent.
func (s *Store) GetSubtask(ctx context.Context, id int64) (*Subtask, error) {
	return getOne(ctx, s.driver, "get subtask", scanSubtask, subtaskSelect+`WHERE s.id = ?`, id)
}

// CreateSubtask inserts a subtask and returns it as stored.
func (s *Store) CreateSubtask(ctx context.Context, in SubtaskInput) (*Subtask, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := s.driver.Exec(ctx, `
		INSERT INTO subtasks (task_id, title, description, status, assigned_to, due_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, in.TaskID, in.Title, in.Description, in.Status, in.AssignedTo, in.DueDate)
	if err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}

	return s.GetSubtask(ctx, res.InsertedID)
}

// UpdateSubtask replaces the mutable fields of a subtask.
func (s *Store) UpdateSubtask(ctx context.Context, id int64, in SubtaskInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	res, err := s.driver.Exec(ctx, `
		UPDATE subtasks
		SET title = ?, description = ?, status = ?, assigned_to = ?, due_date = ?,
		    updated_at = `+s.driver.Now()+`
		WHERE id = ?
	`, in.Title, in.Description, in.Status, in.AssignedTo, in.DueDate, id)
	if err != nil {
		return fmt.Errorf("update subtask: %w", err)
	}
	return expectRow(res, "subtask", id)
}

// DeleteSubtask removes a subtask.
func (s *Store) DeleteSubtask(ctx context.Context, id int64) error {
	res, err := s.driver.Exec(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return expectRow(res, "subtask", id)
}

func scanSubtask(row scanner) (*Subtask, error) {
	var st Subtask
	var status sql.NullString
	var createdAt, updatedAt Optional[time.Time]

	err := row.Scan(
		&st.ID, &st.TaskID, &st.Title, &st.Description, &status,
		&st.AssignedTo, &st.AssignedToName, &st.DueDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Status = TaskStatus(status.String)
	st.CreatedAt = createdAt.V
	st.UpdatedAt = updatedAt.V
	return &st, nil
}
