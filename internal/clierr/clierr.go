// Package clierr defines the terminal failure kinds reported by ai-changelog.
package clierr

import (
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Kind classifies a failure for reporting.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindEnvironment
	KindInput
	KindTransport
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindEnvironment:
		return "environment"
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Message is shown to the user; Cause is kept
// for errors.Is/As and verbose output.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, cause error, msg string, hints []string) error {
	var err error = &Error{Kind: kind, Message: msg, Cause: cause}
	for _, h := range hints {
		err = cerr.WithHint(err, h)
	}
	return err
}

// Config reports an unusable configuration file or value.
func Config(cause error, msg string, hints ...string) error {
	return newError(KindConfig, cause, msg, hints)
}

// Environment reports a missing precondition: repository, tool or credential.
func Environment(cause error, msg string, hints ...string) error {
	return newError(KindEnvironment, cause, msg, hints)
}

// Input reports unusable user input, such as an empty staging area.
func Input(cause error, msg string, hints ...string) error {
	return newError(KindInput, cause, msg, hints)
}

// Transport reports a retryable network condition that outlived its retries.
func Transport(cause error, msg string, hints ...string) error {
	return newError(KindTransport, cause, msg, hints)
}

// Protocol reports an upstream answer that cannot be used.
func Protocol(cause error, msg string, hints ...string) error {
	return newError(KindProtocol, cause, msg, hints)
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if cerr.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Hints returns the remediation hints attached anywhere in err's chain.
func Hints(err error) []string {
	return cerr.GetAllHints(err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
