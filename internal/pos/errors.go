package pos

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("pos: unauthorized")
	ErrNotFound     = errors.New("pos: not found")
	ErrNoOpenShift  = errors.New("pos: no open shift")
)

// ValidationError marks input that is invalid regardless of connectivity.
// It is never queued for retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ConflictError is a business-rule conflict, e.g. opening a shift while one
// is already active on the branch. Active carries the live session so the
// caller can offer a resume.
type ConflictError struct {
	Message string
	Active  *Session
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "conflict"
	}
	return e.Message
}

// NetworkError is a transient transport or server failure. Writes that hit
// one are queued locally and replayed later instead of failing the sale.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
