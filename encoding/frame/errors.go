package frame

import (
	"errors"
	"fmt"
)

// ErrInvalidHeader matches every error returned for a header that failed validation.
var ErrInvalidHeader = errors.New("invalid header")

// Reasons a header fails validation.
var (
	ErrShortHeader = errors.New("header too short")
	ErrBadMagic    = errors.New("bad protocol magic")
	ErrUnknownType = errors.New("unknown message type")
	ErrBadLength   = errors.New("length not allowed for message type")
	ErrBadStatus   = errors.New("status not allowed for message type")
)

// ErrPayloadTooLarge is returned when a payload cannot be announced within a uint32 length.
var ErrPayloadTooLarge = errors.New("payload too large for a single frame")

// InvalidHeaderError describes a header that failed validation.
// The length it derives cannot be trusted, and the connection it was read from must be closed.
type InvalidHeaderError struct {
	Header Header
	Reason error
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("invalid header %s status=%d length=%d: %v", e.Header.Type, e.Header.Status, e.Header.Length, e.Reason)
}

// Is returns true if target is ErrInvalidHeader.
func (e *InvalidHeaderError) Is(target error) bool {
	return target == ErrInvalidHeader
}

func (e *InvalidHeaderError) Unwrap() error {
	return e.Reason
}

func invalid(h Header, reason error) error {
	return &InvalidHeaderError{
		Header: h,
		Reason: reason,
	}
}
