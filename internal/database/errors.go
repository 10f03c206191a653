package database

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a required field was empty or out of bounds.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates a lookup by id matched no row.
	ErrNotFound = errors.New("not found")
)

// StorageError wraps a failure in the database layer itself, as opposed to
// bad input or a lookup miss. The request teardown rolls back the open
// transaction only for errors of this kind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is classified as a database-layer failure.
// This is the single classification point used by Scope.Teardown.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
