// Package errors holds the failure taxonomy shared by the controller and the
// command dispatcher. Every sentinel carries the process exit code the
// dispatcher reports it with.
package errors

import (
	stderrors "errors"
)

const (
	ExitUsage    = 1
	ExitUpstream = 2
)

type Error struct {
	Message  string
	ExitCode int

	cause error
	kind  *Error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches the sentinel an error was joined from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.kind == t
}

func newError(msg string, code int) *Error {
	return &Error{Message: msg, ExitCode: code}
}

// JoinError wraps err in the given sentinel. It returns nil for a nil err.
func JoinError(err error, wrapper *Error) *Error {
	if err != nil {
		return &Error{
			Message:  wrapper.Message,
			ExitCode: wrapper.ExitCode,
			cause:    err,
			kind:     wrapper,
		}
	}
	return nil
}

// ExitCode reports the exit code for err, defaulting to ExitUpstream for
// anything outside the taxonomy.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ExitCode
	}
	return ExitUpstream
}

var (
	ErrUsage            = newError("usage error", ExitUsage)
	ErrScenarioNotFound = newError("scenario not found", ExitUsage)
	ErrInvalidDuration  = newError("duration must be a positive whole number of seconds", ExitUsage)
	ErrUpstream         = newError("control plane request failed", ExitUpstream)
	ErrConflict         = newError("toxic already exists", ExitUpstream)
)
