package myftp

import (
	"io"
)

// maxZeroProgress bounds how many consecutive calls may transfer nothing without an error,
// before the stream is declared stuck.
const maxZeroProgress = 100

// readFull reads exactly len(b) bytes from r into b.
//
// A call interrupted by a signal counts as zero bytes transferred, and is retried.
// It returns io.EOF only if no bytes were read at all,
// and io.ErrUnexpectedEOF if the stream ended after some, but not all bytes.
func readFull(r io.Reader, b []byte) (n int, err error) {
	var stalled int

	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m

		switch {
		case err == nil:
		case isInterrupted(err):
			continue
		case err == io.EOF:
			if n == len(b) {
				return n, nil
			}
			if n > 0 {
				return n, io.ErrUnexpectedEOF
			}
			return n, io.EOF
		default:
			return n, err
		}

		if m > 0 {
			stalled = 0
			continue
		}

		if stalled++; stalled >= maxZeroProgress {
			return n, io.ErrNoProgress
		}
	}

	return n, nil
}

// writeFull writes all of b to w.
//
// A call interrupted by a signal counts as zero bytes transferred, and is retried,
// as is a short write that returned no error.
func writeFull(w io.Writer, b []byte) (n int, err error) {
	var stalled int

	for n < len(b) {
		m, err := w.Write(b[n:])
		if m < 0 || m > len(b)-n {
			return n, io.ErrShortWrite
		}
		n += m

		if err != nil {
			if isInterrupted(err) {
				continue
			}
			return n, err
		}

		if m > 0 {
			stalled = 0
			continue
		}

		if stalled++; stalled >= maxZeroProgress {
			return n, io.ErrShortWrite
		}
	}

	return n, nil
}
