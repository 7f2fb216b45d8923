package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// RemoteCallError wraps a provider or record store failure that aborted an
// operation mid-sequence.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

func remoteErr(err error, format string, args ...any) error {
	return &RemoteCallError{Op: fmt.Sprintf(format, args...), Err: err}
}
