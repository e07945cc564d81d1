//go:build !unix

package myftp

// isInterrupted reports whether err is a system call interrupted by a signal.
// Only unix system calls are interruptible in this way.
func isInterrupted(err error) bool {
	return false
}
