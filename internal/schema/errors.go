package schema

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	// ErrCodeConflict indicates a name is registered twice.
	ErrCodeConflict ErrorCode = "SCHEMA_CONFLICT"

	// ErrCodeMismatch indicates a reference to a name or column outside the view.
	ErrCodeMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeEmptyName indicates an empty table or CTE name.
	ErrCodeEmptyName ErrorCode = "EMPTY_NAME"

	// ErrCodeInvalidName indicates a name that is not a plain SQL identifier.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"
)

// Error is a construction-time rejection.
// All schema errors are local and synchronous; none is retryable.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Name is the offending table, CTE or column name (may be empty).
	Name string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConflictError creates an Error for a duplicate name.
func NewConflictError(name string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Name:    name,
		Message: "name is already present in the schema",
	}
}

// NewMismatchError creates an Error for an unresolved reference.
func NewMismatchError(name, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMismatch,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewEmptyNameError creates an Error for a missing name.
func NewEmptyNameError(what string) *Error {
	return &Error{
		Code:    ErrCodeEmptyName,
		Message: what + " name must not be empty",
	}
}

// NewKeywordNameError creates an INVALID_NAME Error for an SQL keyword.
func NewKeywordNameError(name string) *Error {
	return &Error{
		Code:    ErrCodeInvalidName,
		Name:    name,
		Message: "name is an SQL keyword",
	}
}

// NewInvalidNameError creates an Error for a name that is not an identifier.
func NewInvalidNameError(name string) *Error {
	return &Error{
		Code:    ErrCodeInvalidName,
		Name:    name,
		Message: "name must match [A-Za-z_][A-Za-z0-9_]*",
	}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsConflict reports whether err is a SCHEMA_CONFLICT error.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeConflict
}

// IsMismatch reports whether err is a SCHEMA_MISMATCH error.
func IsMismatch(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeMismatch
}

// IsEmptyName reports whether err is an EMPTY_NAME error.
func IsEmptyName(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeEmptyName
}

// IsInvalidName reports whether err is an INVALID_NAME error.
func IsInvalidName(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeInvalidName
}
