package restaurant

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrForbiddenTransition = fmt.Errorf("%w: forbidden status transition", ErrValidation)
)

// Error carries a message meant for the client and one of the sentinel kinds
// above.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func invalid(format string, args ...any) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func forbiddenTransition(from, to any) error {
	return &Error{kind: ErrForbiddenTransition, msg: fmt.Sprintf("Cannot change order from %s to %s", from, to)}
}

func notFound(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}
