package board

import (
	"errors"
	"fmt"
)

// ValidationError rejects a command with a missing or malformed field
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NotFoundError is returned when a command names an unknown project, task or record
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError blocks deleting a project that still owns active tasks
type ConflictError struct {
	ProjectID   string
	Outstanding int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("project %s has %d outstanding tasks", e.ProjectID, e.Outstanding)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError
func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}
