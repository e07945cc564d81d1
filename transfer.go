package myftp

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// errShortFile is returned when a local file ends before the size that was announced for it.
var errShortFile = errors.New("file shorter than announced size")

// progressFunc is told about every chunk moved by the pump.
type progressFunc func(n int)

// sendFrom writes exactly size bytes read from src to w, in chunks of at most len(buf) bytes.
func sendFrom(w io.Writer, src io.Reader, size int64, buf []byte, progress progressFunc) (int64, error) {
	var sent int64

	for sent < size {
		chunk := buf
		if remaining := size - sent; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := src.Read(chunk)
		if n > 0 {
			if _, werr := writeFull(w, chunk[:n]); werr != nil {
				return sent, werr
			}
			sent += int64(n)
			if progress != nil {
				progress(n)
			}
		}

		if err != nil {
			if isInterrupted(err) {
				continue
			}
			if err == io.EOF {
				if sent < size {
					return sent, errShortFile
				}
				break
			}
			return sent, err
		}
	}

	return sent, nil
}

// receiveTo reads exactly size bytes from r and writes them to dst, in chunks of at most len(buf) bytes.
func receiveTo(dst io.Writer, r io.Reader, size int64, buf []byte, progress progressFunc) (int64, error) {
	var received int64

	for received < size {
		chunk := buf
		if remaining := size - received; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := readFull(r, chunk)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return received, err
		}

		if _, err := writeFull(dst, chunk[:n]); err != nil {
			return received, err
		}
		received += int64(n)
		if progress != nil {
			progress(n)
		}
	}

	return received, nil
}

// sendFile streams exactly size bytes of the file at path to w.
// The file is opened before anything is written, so a file that cannot be opened fails fast.
func sendFile(w io.Writer, path string, size int64, buf []byte, progress progressFunc) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open source file")
	}
	defer f.Close()

	n, err := sendFrom(w, f, size, buf, progress)
	if err != nil {
		return n, errors.Wrapf(err, "send %s", path)
	}

	return n, nil
}

// createFile opens path for writing, creating it or truncating it.
func createFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "create destination file")
	}

	return f, nil
}

// receiveFile streams exactly size bytes from r into f, and closes f.
//
// On failure the file is left holding whatever was received so far.
func receiveFile(r io.Reader, f *os.File, size int64, buf []byte, progress progressFunc) (int64, error) {
	n, err := receiveTo(f, r, size, buf, progress)
	if err != nil {
		f.Close()
		return n, errors.Wrapf(err, "receive %s", f.Name())
	}

	if err := f.Close(); err != nil {
		return n, errors.Wrapf(err, "close %s", f.Name())
	}

	return n, nil
}
