package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (package, item)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// TransitionError describes a rejected state machine edge.
// It matches ErrInvalidTransition under errors.Is.
type TransitionError struct {
	Machine string // "item", "investor", "package"
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return e.Machine + " cannot move from " + quote(e.From) + " to " + quote(e.To)
}

// StatusCode implements the HTTPError interface
func (e *TransitionError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
