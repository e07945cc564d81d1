//go:build unix

package myftp

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isInterrupted reports whether err is a system call interrupted by a signal.
func isInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}
