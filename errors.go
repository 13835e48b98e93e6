package redisdown

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by point lookups of absent keys.
	ErrNotFound = errors.New("redisdown: not found")
	// ErrBackendUnavailable marks every failure reported by Redis.
	ErrBackendUnavailable = errors.New("redisdown: backend unavailable")
	// ErrConfiguration is returned when a store cannot be opened or destroyed
	// with the options at hand.
	ErrConfiguration = errors.New("redisdown: configuration error")
	// ErrBadOperation is returned for batch entries of an unknown type.
	ErrBadOperation = errors.New("redisdown: bad operation")
	// ErrNotOpen is returned by operations on a store that is not open.
	ErrNotOpen = errors.New("redisdown: store is not open")
)

// BackendError wraps a Redis failure with the operation and location it hit.
// It matches both ErrBackendUnavailable and the underlying error.
type BackendError struct {
	Op       string
	Location string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("redisdown: %s %q: %v", e.Op, e.Location, e.Err)
}

func (e *BackendError) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, ErrBackendUnavailable)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func backendErr(op, location string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Location: location, Err: err}
}

// BadOperationError reports the first batch entry with an unknown type.
type BadOperationError struct {
	Index int
	Type  OpType
}

func (e *BadOperationError) Error() string {
	return fmt.Sprintf("redisdown: unknown type of operation %q at index %d", string(e.Type), e.Index)
}

func (e *BadOperationError) Unwrap() error { return ErrBadOperation }
