package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence is wrapped by every error a backend operation returns.
	ErrPersistence = errors.New("persistence failure")

	// ErrInitialization is wrapped by the error returned when no backend
	// could be constructed.
	ErrInitialization = errors.New("no storage backend could be initialized")

	// ErrNoGeneratedID is the cause reported when an insert succeeds but
	// the database yields no generated id.
	ErrNoGeneratedID = errors.New("failed to obtain generated id")
)

// PersistenceError reports a failed backend operation.
//
// Op names the operation (e.g., "add", "getAll"); Err is the underlying cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrPersistence and the cause to errors.Is / errors.As.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// persistErr wraps err for op. A nil err stays nil.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// InitializationError reports that every candidate backend failed to start.
type InitializationError struct {
	// Causes maps each attempted backend name to its construction error,
	// in the order they were tried.
	Causes []BackendFailure
}

// BackendFailure is one failed construction attempt.
type BackendFailure struct {
	Name string
	Err  error
}

func (e *InitializationError) Error() string {
	msg := ErrInitialization.Error()
	for _, c := range e.Causes {
		msg += fmt.Sprintf("; %s: %v", c.Name, c.Err)
	}
	return msg
}

// Unwrap exposes ErrInitialization and every construction error.
func (e *InitializationError) Unwrap() []error {
	errs := []error{ErrInitialization}
	for _, c := range e.Causes {
		errs = append(errs, c.Err)
	}
	return errs
}
