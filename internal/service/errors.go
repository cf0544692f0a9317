package service

import (
	"errors"
	"fmt"

	"lessonarchiver/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a resource with the same identity already exists.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when the caller's credentials are missing or not accepted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrGrantExpired is returned when a file grant is redeemed after its expiry.
	ErrGrantExpired = fmt.Errorf("%w: grant is expired", ErrInvalidInput)
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotFoundError names the resource that could not be found.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// Is makes every NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError names the resource that already exists.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return e.Resource + " already exists"
}

// Is makes every ConflictError match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// externalError marks err as a failure of a downstream service.
func externalError(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
}

// storageError translates storage sentinels into the service taxonomy. Errors of the
// service taxonomy pass through unchanged so transactions can return them directly.
func storageError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnauthorized), errors.Is(err, ErrExternalService):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return &NotFoundError{Resource: resource}
	case errors.Is(err, storage.ErrConflict):
		return &ConflictError{Resource: resource}
	default:
		return WrapError(err, "database error")
	}
}
