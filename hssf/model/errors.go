package model

import (
	"errors"
	"fmt"
)

// InvalidStateError reports an operation attempted against a workbook whose
// state cannot support it.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidStateError creates an InvalidStateError with a formatted message.
func NewInvalidStateError(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalidStateError reports whether err is an InvalidStateError.
func IsInvalidStateError(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}

// InvalidArgumentError reports a caller-supplied value outside the allowed
// range or shape.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// NewInvalidArgumentError creates an InvalidArgumentError with a formatted
// message.
func NewInvalidArgumentError(format string, args ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgumentError reports whether err is an InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

// CapacityExceededError reports that a bounded workbook table is full.
type CapacityExceededError struct {
	Message string
}

func (e *CapacityExceededError) Error() string {
	return e.Message
}

// NewCapacityExceededError creates a CapacityExceededError with a formatted
// message.
func NewCapacityExceededError(format string, args ...interface{}) *CapacityExceededError {
	return &CapacityExceededError{Message: fmt.Sprintf(format, args...)}
}

// IsCapacityExceededError reports whether err is a CapacityExceededError.
func IsCapacityExceededError(err error) bool {
	var e *CapacityExceededError
	return errors.As(err, &e)
}
