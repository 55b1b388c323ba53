// Package apperrors defines the error taxonomy shared by every layer:
// validation failures raised before any I/O, remote data service failures,
// local draft storage failures, and not-found lookups.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation returns an error wrapping ErrValidation with a user-facing message.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries the message shown to the technician.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RemoteError is a failed call against the hosted backend (tables or object storage).
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("remote %s: %v", e.Op, e.Err) }

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError. A nil err stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

// LocalStorageError is a failed call against the embedded draft database.
type LocalStorageError struct {
	Op  string
	Err error
}

func (e *LocalStorageError) Error() string { return fmt.Sprintf("local storage %s: %v", e.Op, e.Err) }

func (e *LocalStorageError) Unwrap() error { return e.Err }

// LocalStorage wraps err as a LocalStorageError. A nil err stays nil.
func LocalStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &LocalStorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsRemote reports whether err originated in the remote data service.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsLocalStorage reports whether err originated in the draft store.
func IsLocalStorage(err error) bool {
	var le *LocalStorageError
	return errors.As(err, &le)
}
