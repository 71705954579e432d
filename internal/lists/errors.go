package lists

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by the service when a list or item is absent
	// or not visible to the requesting shop.
	ErrNotFound = errors.New("not found")

	// ErrListCompleted is returned when an item update targets a list that
	// has already been completed.
	ErrListCompleted = errors.New("list already completed")

	// ErrResourceExhausted means no store connection became available
	// within the configured acquire timeout.
	ErrResourceExhausted = errors.New("store connection pool exhausted")
)

// ValidationError carries a message that is safe to echo to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// StorageError wraps a backend failure. Op names the store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// StoreErr wraps err as a StorageError unless it is already a domain error.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.As(err, &ve), errors.As(err, &se),
		errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrListCompleted), errors.Is(err, ErrNotFound):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
