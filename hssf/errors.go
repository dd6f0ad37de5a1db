package hssf

import (
	"errors"
	"fmt"

	"github.com/HasaanA16/poi/hssf/model"
)

// OldFormatError reports a workbook written by a pre-BIFF8 generation of
// the format. The message names the generation detected.
type OldFormatError struct {
	Message string
}

func (e *OldFormatError) Error() string {
	return e.Message
}

// NewOldFormatError creates a new OldFormatError with the given message.
func NewOldFormatError(format string, args ...interface{}) *OldFormatError {
	return &OldFormatError{Message: fmt.Sprintf(format, args...)}
}

// IsOldFormatError reports whether err is, or wraps, an OldFormatError.
func IsOldFormatError(err error) bool {
	var e *OldFormatError
	return errors.As(err, &e)
}

// Error types raised by the structural layer, aliased so callers can match
// them without importing it.
type (
	InvalidStateError     = model.InvalidStateError
	InvalidArgumentError  = model.InvalidArgumentError
	CapacityExceededError = model.CapacityExceededError
)

// IsInvalidStateError reports whether err is, or wraps, an InvalidStateError.
func IsInvalidStateError(err error) bool {
	return model.IsInvalidStateError(err)
}

// IsInvalidArgumentError reports whether err is, or wraps, an
// InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	return model.IsInvalidArgumentError(err)
}

// IsCapacityExceededError reports whether err is, or wraps, a
// CapacityExceededError.
func IsCapacityExceededError(err error) bool {
	return model.IsCapacityExceededError(err)
}
