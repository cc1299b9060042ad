package db

import (
	"fmt"
	"slices"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// UserRole is a user's role on the team.
type UserRole string

const (
	RoleMember      UserRole = "member"
	RoleAdmin       UserRole = "admin"
	RoleScrumMaster UserRole = "scrum_master"
)

// UserRoles lists every role.
var UserRoles = []UserRole{RoleMember, RoleAdmin, RoleScrumMaster}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool { return slices.Contains(UserRoles, r) }

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectInactive  ProjectStatus = "inactive"
	ProjectCompleted ProjectStatus = "completed"
)

// ProjectStatuses lists every project status.
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectInactive, ProjectCompleted}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool { return slices.Contains(ProjectStatuses, s) }

// IssueStatus is the workflow state of an issue.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueReview     IssueStatus = "review"
	IssueClosed     IssueStatus = "closed"
)

// IssueStatuses lists every issue status.
var IssueStatuses = []IssueStatus{IssueOpen, IssueInProgress, IssueReview, IssueClosed}

// Valid reports whether s is a known issue status.
func (s IssueStatus) Valid() bool { return slices.Contains(IssueStatuses, s) }

// Priority ranks issues and tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// TaskStatus is the board column of a task or subtask.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every task status in board order.
var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskReview, TaskCompleted}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool { return slices.Contains(TaskStatuses, s) }

// enumValue is implemented by every enum above.
type enumValue interface {
	~string
	Valid() bool
}

// defaultEnum fills an empty value with def and rejects unknown values.
func defaultEnum[E enumValue](field string, v *E, def E) error {
	if *v == "" {
		*v = def
		return nil
	}
	if !(*v).Valid() {
		return iskaerrors.ErrInvalidInput(field, fmt.Sprintf("unknown value %q", string(*v)))
	}
	return nil
}

// requireText rejects an empty required text field.
func requireText(field, v string) error {
	if v == "" {
		return iskaerrors.ErrMissingField(field)
	}
	return nil
}
