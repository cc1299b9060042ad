// Package errors provides structured error types for iska.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for iska.
const (
	// Configuration errors
	CodeConfigInvalid            Code = "CONFIG_INVALID"
	CodeConfigUnsupportedBackend Code = "CONFIG_UNSUPPORTED_BACKEND"

	// Connectivity errors
	CodeConnectFailed Code = "DB_CONNECT_FAILED"

	// Repository errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
)

// Category groups error codes by how callers should treat them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryConfig
	CategoryConnectivity
	CategoryNotFound
	CategoryBadRequest
)

var codeCategories = map[Code]Category{
	CodeConfigInvalid:            CategoryConfig,
	CodeConfigUnsupportedBackend: CategoryConfig,
	CodeConnectFailed:            CategoryConnectivity,
	CodeNotFound:                 CategoryNotFound,
	CodeInvalidInput:             CategoryBadRequest,
}

// String returns a short label for the category.
func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "configuration"
	case CategoryConnectivity:
		return "connectivity"
	case CategoryNotFound:
		return "not_found"
	case CategoryBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Error is the structured error type for iska.
type Error struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *Error) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category.
func (e *Error) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is an Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrConfigInvalid returns an error for an unreadable or corrupt configuration file.
func ErrConfigInvalid(path, reason string) *Error {
	return &Error{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration file %s", path),
		Why:  reason,
		Fix:  "Fix the JSON in the file, or delete it to regenerate the defaults",
	}
}

// ErrUnsupportedBackend returns an error for an unknown backend identifier.
func ErrUnsupportedBackend(name string) *Error {
	return &Error{
		Code: CodeConfigUnsupportedBackend,
		What: fmt.Sprintf("unsupported database type: %q", name),
		Why:  "The configuration names a backend iska does not know",
		Fix:  "Set \"type\" to one of: sqlite, mysql, postgresql",
	}
}

// ErrConnectFailed returns an error when a store connection cannot be established.
func ErrConnectFailed(backend string, cause error) *Error {
	return &Error{
		Code:  CodeConnectFailed,
		What:  fmt.Sprintf("connect to %s", backend),
		Fix:   "Check the connection settings with 'iska config test'",
		Cause: cause,
	}
}

// ErrNotFound returns an error when an entity does not exist.
func ErrNotFound(kind string, id int64) *Error {
	return &Error{
		Code: CodeNotFound,
		What: fmt.Sprintf("%s %d not found", kind, id),
	}
}

// ErrInvalidInput returns an error for a rejected field value.
func ErrInvalidInput(field, reason string) *Error {
	return &Error{
		Code: CodeInvalidInput,
		What: fmt.Sprintf("invalid %s", field),
		Why:  reason,
	}
}

// ErrMissingField returns an error for an absent required field.
func ErrMissingField(field string) *Error {
	return &Error{
		Code: CodeInvalidInput,
		What: fmt.Sprintf("%s is required", field),
	}
}

// AsError attempts to convert an error to an *Error.
// Returns nil if the error chain holds no *Error.
func AsError(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code Code) bool {
	e := AsError(err)
	return e != nil && e.Code == code
}
