package poifs

import (
	"errors"
	"fmt"
)

// FormatError represents a structural problem in a compound document: a bad
// signature, a truncated header or directory, or a malformed sector chain.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// NewFormatError creates a new FormatError with the given message.
func NewFormatError(format string, args ...interface{}) *FormatError {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is, or wraps, a FormatError.
func IsFormatError(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// InvalidStateError indicates an operation that is incompatible with how the
// filesystem was opened, such as an in-place commit on a read-only source.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidStateError creates a new InvalidStateError with the given message.
func NewInvalidStateError(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalidStateError reports whether err is, or wraps, an InvalidStateError.
func IsInvalidStateError(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}
