// Package shellerr defines the shell's error taxonomy: UserError,
// ParseError, ExecError, OsError, and Fatal. All are printed at the
// REPL boundary and, except Fatal, leave the REPL running.
package shellerr

import "fmt"

// Kind classifies an error for the REPL's single catch site.
type Kind int

const (
	User Kind = iota
	Parse
	Exec
	OS
	Fatal
)

// Error wraps a message (and, for Exec/OS, an underlying cause) with
// a Kind so the REPL can decide whether to keep running.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes Cause for errors.Is/errors.As, matching
// loykin-provisr's internal/job error style of wrapping the
// underlying syscall error with %w.
func (e *Error) Unwrap() error { return e.Cause }

// IsFatal reports whether the REPL must stop (only Kind == Fatal does).
func (e *Error) IsFatal() bool { return e.Kind == Fatal }

func newf(k Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Userf builds a UserError: invalid builtin usage or an unknown
// job/pid.
func Userf(format string, args ...any) *Error { return newf(User, nil, format, args...) }

// Parsef builds a ParseError for a malformed line.
func Parsef(format string, args ...any) *Error { return newf(Parse, nil, format, args...) }

// Execf builds an ExecError for an execvp/LookPath failure.
func Execf(cause error, format string, args ...any) *Error { return newf(Exec, cause, format, args...) }

// OSf builds an OsError for an unexpected syscall failure (pipe
// creation, tcsetpgrp, open on a required path).
func OSf(cause error, format string, args ...any) *Error { return newf(OS, cause, format, args...) }

// Fatalf builds a Fatal error: cannot install signal handlers, cannot
// start the line reader.
func Fatalf(cause error, format string, args ...any) *Error { return newf(Fatal, cause, format, args...) }
