package myftp

import (
	"errors"

	"github.com/myftp/myftp/encoding/frame"
)

// Outcomes that are reported to the caller, but leave the session open.
var (
	// ErrRemoteNotExist is returned when the server reports that the named file is not a regular file.
	ErrRemoteNotExist = errors.New("remote file does not exist")

	// ErrLocalNotExist is returned by Put when the named local file is not a regular file.
	// Nothing is sent to the server.
	ErrLocalNotExist = errors.New("local file does not exist")

	// ErrRemoteRefused is returned by Put when the server will not accept the named file.
	ErrRemoteRefused = errors.New("server refused the upload")

	// ErrFileTooLarge is returned when a file cannot be announced in a single file-data frame.
	ErrFileTooLarge = errors.New("file too large to transfer")
)

// Usage errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrInvalidAddress   = errors.New("invalid server address")
	ErrInvalidName      = errors.New("invalid file name")
	ErrServerClosed     = errors.New("myftp: Server closed")
)

// Protocol errors, in addition to frame.ErrInvalidHeader.
var (
	// ErrUnexpectedMessage is returned when a valid header of the wrong type arrives.
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrPayloadTooLarge is returned when a peer announces more name or text bytes than fit in a scratch buffer.
	ErrPayloadTooLarge = errors.New("payload exceeds buffer size")
)

// SessionError is returned by Client operations that ended the session.
// The connection has been closed, and the Client is disconnected.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return "myftp: " + e.Op + ": session ended: " + e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsSessionEnded reports whether err ended the client session.
func IsSessionEnded(err error) bool {
	var sessErr *SessionError
	return errors.As(err, &sessErr)
}

// isProtocolError reports whether err was caused by a peer not following the protocol,
// as opposed to a transport or local failure.
func isProtocolError(err error) bool {
	return errors.Is(err, frame.ErrInvalidHeader) ||
		errors.Is(err, ErrUnexpectedMessage) ||
		errors.Is(err, ErrPayloadTooLarge)
}
