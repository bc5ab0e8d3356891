package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrUsage         = errors.New("missing required argument")
	ErrNotFound      = errors.New("target not found")
	ErrAlreadyExists = errors.New("target already exists")
	ErrTimeout       = errors.New("execution timed out")
	ErrIO            = errors.New("operation failed")
)

// Kind classifies the failure of a dispatch for programmatic consumers.
type Kind string

const (
	KindNone          Kind = ""
	KindUsage         Kind = "usage"
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindTimeout       Kind = "timeout"
	KindIO            Kind = "io"
)

// KindOf maps an error onto its Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUsage):
		return KindUsage
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindIO
	}
}

// failure is a handler error that already carries its user-facing line.
type failure struct {
	kind    error
	cause   error
	message string
}

func (f *failure) Error() string { return f.message }

func (f *failure) Unwrap() []error {
	if f.cause == nil {
		return []error{f.kind}
	}
	return []error{f.kind, f.cause}
}

func fail(kind error, cause error, format string, args ...any) error {
	return &failure{kind: kind, cause: cause, message: fmt.Sprintf(format, args...)}
}
