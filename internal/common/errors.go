// Package common holds the error taxonomy shared by repositories,
// services and handlers.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed hashes, ids and mismatched hash widths.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrInvalidTransition is an input error: the requested status cannot be
	// reached from the current non-terminal status.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrInvalidInput)
	// ErrStorageUnavailable fails the whole operation before anything is written.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotificationFailed is reported next to a committed status change.
	ErrNotificationFailed = errors.New("notification failed")
	// ErrStaleStatus aborts a conditional write whose expected status no
	// longer holds. Nothing in that write was committed.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// InvalidInput wraps err (or a formatted message) as an input error.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidInputErr marks an existing error as an input error, keeping it
// in the chain.
func InvalidInputErr(err error) error {
	if err == nil || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
