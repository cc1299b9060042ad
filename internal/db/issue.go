package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Issue belongs to a project and groups tasks.
type Issue struct {
	ID             int64            `json:"id" yaml:"id"`
	ProjectID      int64            `json:"project_id" yaml:"project_id"`
	Title          string           `json:"title" yaml:"title"`
	Description    Optional[string] `json:"description" yaml:"description"`
	Status         IssueStatus      `json:"status" yaml:"status"`
	Priority       Priority         `json:"priority" yaml:"priority"`
	CreatedBy      Optional[int64]  `json:"created_by" yaml:"created_by"`
	AssignedTo     Optional[int64]  `json:"assigned_to" yaml:"assigned_to"`
	CreatedByName  Optional[string] `json:"created_by_name" yaml:"created_by_name"`
	AssignedToName Optional[string] `json:"assigned_to_name" yaml:"assigned_to_name"`
	CreatedAt      time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" yaml:"updated_at"`
}

// IssueInput holds the fields of an issue. ProjectID and CreatedBy are only
// read on create.
type IssueInput struct {
	ProjectID   int64            `json:"project_id"`
	Title       string           `json:"title"`
	Description Optional[string] `json:"description"`
	Status      IssueStatus      `json:"status"`
	Priority    Priority         `json:"priority"`
	CreatedBy   Optional[int64]  `json:"created_by"`
	AssignedTo  Optional[int64]  `json:"assigned_to"`
}

func (in *IssueInput) normalize() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	in.Description = in.Description.Normalized()
	in.CreatedBy = in.CreatedBy.Normalized()
	in.AssignedTo = in.AssignedTo.Normalized()
	if err := defaultEnum("status", &in.Status, IssueOpen); err != nil {
		return err
	}
	return defaultEnum("priority", &in.Priority, PriorityMedium)
}

const issueSelect = `
	SELECT i.id, i.project_id, i.title, i.description, i.status, i.priority,
	       i.created_by, i.assigned_to, u1.name, u2.name, i.created_at, i.updated_at
	FROM issues i
	LEFT JOIN users u1 ON i.created_by = u1.id
	LEFT JOIN users u2 ON i.assigned_to = u2.id
`

// ListIssues returns the issues of a project, newest first, with creator and
// assignee names resolved.
func (s *Store) ListIssues(ctx context.Context, projectID int64) ([]Issue, error) {
	return list(ctx, s.driver, "list issues", scanIssue, issueSelect+`
		WHERE i.project_id = ?
		ORDER BY i.created_at DESC, i.id DESC
	`, projectID)
}

// GetIssue retrieves an issue by ID. Returns nil, nil when absent.
func (s *Store) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	return getOne(ctx, s.driver, "get issue", scanIssue, issueSelect+`WHERE i.id = ?`, id)
}

// CreateIssue inserts an issue and returns it as stored. A missing project or
// user surfaces as the backend's foreign key error.
func (s *Store) CreateIssue(ctx context.Context, in IssueInput) (*Issue, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := s.driver.Exec(ctx, `
		INSERT INTO issues (project_id, title, description, status, priority, created_by, assigned_to)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ProjectID, in.Title, in.Description, in.Status, in.Priority, in.CreatedBy, in.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	return s.GetIssue(ctx, res.InsertedID)
}

// UpdateIssue replaces the title, description, status, priority and assignee.
func (s *Store) UpdateIssue(ctx context.Context, id int64, in IssueInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	res, err := s.driver.Exec(ctx, `
		UPDATE issues
		SET title = ?, description = ?, status = ?, priority = ?, assigned_to = ?,
		    updated_at = `+s.driver.Now()+`
		WHERE id = ?
	`, in.Title, in.Description, in.Status, in.Priority, in.AssignedTo, id)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return expectRow(res, "issue", id)
}

// DeleteIssue removes an issue with its tasks, subtasks and time entries.
func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	res, err := s.driver.Exec(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return expectRow(res, "issue", id)
}

func scanIssue(row scanner) (*Issue, error) {
	var i Issue
	var status, priority sql.NullString
	var createdAt, updatedAt Optional[time.Time]

	err := row.Scan(
		&i.ID, &i.ProjectID, &i.Title, &i.Description, &status, &priority,
		&i.CreatedBy, &i.AssignedTo, &i.CreatedByName, &i.AssignedToName,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Status = IssueStatus(status.String)
	i.Priority = Priority(priority.String)
	i.CreatedAt = createdAt.V
	i.UpdatedAt = updatedAt.V
	return &i, nil
}
