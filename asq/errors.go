package asq

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by origin. Its value is the category name shown
// to the user.
type Kind string

const (
	// KindConfiguration covers handoff directory and file problems and invalid flags.
	KindConfiguration Kind = "ConfigurationError"
	// KindInput covers an unreadable stdin.
	KindInput Kind = "InputError"
	// KindRemote covers every failure surfaced by the completion service.
	KindRemote Kind = "RemoteError"
	// KindOutput covers a failed write of the result to stdout.
	KindOutput Kind = "OutputError"
)

// Error is the error type returned by the orchestrator.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Diagnostic renders err as the single stderr line "<category>: <message>".
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	line := err.Error()
	if KindOf(err) == "" {
		line = "Error: " + line
	}
	// 远端错误可能带有多行响应体，必须压成一行。
	return strings.Join(strings.Fields(line), " ")
}
