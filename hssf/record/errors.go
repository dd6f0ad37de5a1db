package record

import (
	"errors"
	"fmt"
)

// RecordFormatError represents a malformed record stream: a truncated record,
// an oversized payload, or a field that cannot be decoded.
type RecordFormatError struct {
	Message string
}

func (e *RecordFormatError) Error() string {
	return e.Message
}

// NewRecordFormatError creates a new RecordFormatError with the given message.
func NewRecordFormatError(format string, args ...interface{}) *RecordFormatError {
	return &RecordFormatError{Message: fmt.Sprintf(format, args...)}
}

// IsRecordFormatError reports whether err is, or wraps, a RecordFormatError.
func IsRecordFormatError(err error) bool {
	var e *RecordFormatError
	return errors.As(err, &e)
}

// SizeMismatchError is raised during encoding when a record writes a
// different number of bytes than RecordSize declared. The whole encode is
// abandoned; no partial output is returned.
type SizeMismatchError struct {
	Sid      uint16
	Declared int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("record 0x%04X (%s) declared %d bytes but serialized %d",
		e.Sid, Name(e.Sid), e.Declared, e.Actual)
}

// IsSizeMismatchError reports whether err is, or wraps, a SizeMismatchError.
func IsSizeMismatchError(err error) bool {
	var e *SizeMismatchError
	return errors.As(err, &e)
}
