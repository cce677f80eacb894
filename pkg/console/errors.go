package console

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded indicates the command table is full.
	ErrCapacityExceeded = errors.New("max commands exceeded")
	// ErrIdentifierTooLong indicates the command identifier exceeds its bound.
	ErrIdentifierTooLong = errors.New("command length exceeded")
	// ErrDescriptionTooLong indicates the command description exceeds its bound.
	ErrDescriptionTooLong = errors.New("command description exceeded")
	// ErrNilHandler indicates a command registered without a handler.
	ErrNilHandler = errors.New("command handler is nil")
)

// RegisterError is returned by Registry.Register.
type RegisterError struct {
	ID  string
	Err error
}

// Error implements error.
func (e *RegisterError) Error() string {
	return fmt.Sprintf("register %q: %v", e.ID, e.Err)
}

// Unwrap returns the cause.
func (e *RegisterError) Unwrap() error {
	return e.Err
}
