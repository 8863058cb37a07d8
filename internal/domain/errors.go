// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrOutOfRange is returned when an index argument is outside the queue bounds.
	ErrOutOfRange = errors.New("index out of range")

	// ErrBackendUnavailable is returned when the media backend cannot execute a command.
	ErrBackendUnavailable = errors.New("media backend unavailable")

	// ErrEngineClosed is returned when a command is submitted after shutdown.
	ErrEngineClosed = errors.New("engine closed")

	// ErrNoSavedSession is returned by repositories that hold no session.
	ErrNoSavedSession = errors.New("no saved session")

	// ErrInvalidLocator is returned when a track has no playable locator.
	ErrInvalidLocator = errors.New("invalid track locator")
)

// IndexError describes a rejected index argument.
type IndexError struct {
	Op      string // Operation that rejected the index (e.g., "play_at", "insert_at")
	Index   int    // Offending index
	Len     int    // Queue length at the time of the call
	Current int    // Current index at the time of the call
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range (len %d, current %d)", e.Op, e.Index, e.Len, e.Current)
}

// Unwrap returns ErrOutOfRange so callers can use errors.Is.
func (e *IndexError) Unwrap() error {
	return ErrOutOfRange
}

// NewIndexError creates a new IndexError.
func NewIndexError(op string, index, length, current int) *IndexError {
	return &IndexError{Op: op, Index: index, Len: length, Current: current}
}

// BackendError represents a failed media backend command.
// It wraps low-level backend errors with the operation that failed.
type BackendError struct {
	Op      string // Backend command (e.g., "play_at", "pause", "seek")
	Locator string // Media locator (if applicable)
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("backend %s failed for '%s': %v", e.Op, e.Locator, e.Err)
	}
	return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is reports every BackendError as ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// NewBackendError creates a new BackendError.
func NewBackendError(op, locator string, err error) *BackendError {
	return &BackendError{Op: op, Locator: locator, Err: err}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "clear")
	Type    string // Repository type (e.g., "sqlite", "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "Engine", "FileSource")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
