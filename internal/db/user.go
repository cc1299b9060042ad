package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// User is a team member who can own issues, be assigned work and track time.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      UserRole  `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// UserInput holds the mutable fields of a user. Role defaults to member.
type UserInput struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func (in *UserInput) normalize() error {
	if err := requireText("name", in.Name); err != nil {
		return err
	}
	if err := requireText("email", in.Email); err != nil {
		return err
	}
	return defaultEnum("role", &in.Role, RoleMember)
}

const userColumns = `id, name, email, role, created_at, updated_at`

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return list(ctx, s.driver, "list users", scanUser, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC, id DESC
	`)
}

// GetUser retrieves a user by ID. Returns nil, nil when absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return getOne(ctx, s.driver, "get user", scanUser,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// CreateUser inserts a user and returns it as stored.
func (s *Store) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := s.driver.Exec(ctx, `
		INSERT INTO users (name, email, role)
		VALUES (?, ?, ?)
	`, in.Name, in.Email, in.Role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.GetUser(ctx, res.InsertedID)
}

// UpdateUser replaces the mutable fields of a user.
func (s *Store) UpdateUser(ctx context.Context, id int64, in UserInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	res, err := s.driver.Exec(ctx, `
		UPDATE users SET name = ?, email = ?, role = ?, updated_at = `+s.driver.Now()+`
		WHERE id = ?
	`, in.Name, in.Email, in.Role, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectRow(res, "user", id)
}

// DeleteUser removes a user. Fails while the user still owns time entries.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.driver.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectRow(res, "user", id)
}

func scanUser(row scanner) (*User, error) {
	var u User
	var role sql.NullString
	var createdAt, updatedAt Optional[time.Time]

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	u.Role = UserRole(role.String)
	u.CreatedAt = createdAt.V
	u.UpdatedAt = updatedAt.V
	return &u, nil
}
