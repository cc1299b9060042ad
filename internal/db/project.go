package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Project is the top of the work hierarchy. Deleting a project removes its
// issues and everything below them.
type Project struct {
	ID          int64            `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description Optional[string] `json:"description" yaml:"description"`
	Status      ProjectStatus    `json:"status" yaml:"status"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at"`
}

// ProjectInput holds the mutable fields of a project. Status defaults to active.
type ProjectInput struct {
	Name        string           `json:"name"`
	Description Optional[string] `json:"description"`
	Status      ProjectStatus    `json:"status"`
}

func (in *ProjectInput) normalize() error {
	if err := requireText("name", in.Name); err != nil {
		return err
	}
	in.Description = in.Description.Normalized()
	return defaultEnum("status", &in.Status, ProjectActive)
}

const projectColumns = `id, name, description, status, created_at, updated_at`

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	return list(ctx, s.driver, "list projects", scanProject, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC, id DESC
	`)
}

// GetProject retrieves a project by ID. Returns nil, nil when absent.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	return getOne(ctx, s.driver, "get project", scanProject,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
}

// CreateProject inserts a project and returns it as stored.
func (s *Store) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := s.driver.Exec(ctx, `
		INSERT INTO projects (name, description, status)
		VALUES (?, ?, ?)
	`, in.Name, in.Description, in.Status)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return s.GetProject(ctx, res.InsertedID)
}

// UpdateProject replaces the mutable fields of a project.
func (s *Store) UpdateProject(ctx context.Context, id int64, in ProjectInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	res, err := s.driver.Exec(ctx, `
		UPDATE projects SET name = ?, description = ?, status = ?, updated_at = `+s.driver.Now()+`
		WHERE id = ?
	`, in.Name, in.Description, in.Status, id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return expectRow(res, "project", id)
}

// DeleteProject removes a project and, through cascading foreign keys, its
// issues, tasks, subtasks and time entries.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.driver.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectRow(res, "project", id)
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var status sql.NullString
	var createdAt, updatedAt Optional[time.Time]

	if err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Status = ProjectStatus(status.String)
	p.CreatedAt = createdAt.V
	p.UpdatedAt = updatedAt.V
	return &p, nil
}
