package myftp

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/myftp/myftp/encoding/frame"
)

// conn carries myftp frames over a byte stream.
//
// A conn is owned by exactly one goroutine: the protocol never has
// more than one exchange outstanding, so reads and writes need no locking.
type conn struct {
	io.ReadWriteCloser
}

// recvHeader reads and validates the next header.
// An invalid header is returned alongside an error matching frame.ErrInvalidHeader.
func (c *conn) recvHeader() (frame.Header, error) {
	var b [frame.HeaderSize]byte

	if _, err := readFull(c, b[:]); err != nil {
		return frame.Header{}, err
	}

	return frame.Decode(b[:])
}

// expectHeader reads the next header, and checks that it is of the wanted type.
func (c *conn) expectHeader(want frame.MessageType) (frame.Header, error) {
	hdr, err := c.recvHeader()
	if err != nil {
		return hdr, err
	}

	if hdr.Type != want {
		return hdr, errors.Wrapf(ErrUnexpectedMessage, "got %s, want %s", hdr.Type, want)
	}

	return hdr, nil
}

func (c *conn) sendHeader(hdr frame.Header) error {
	var b [frame.HeaderSize]byte

	_, err := writeFull(c, hdr.AppendBinary(b[:0]))
	return err
}

// sendText sends hdr followed by text, NUL-terminated.
// hdr must already announce len(text)+1 bytes of payload.
func (c *conn) sendText(hdr frame.Header, text []byte) error {
	if err := c.sendHeader(hdr); err != nil {
		return err
	}

	if _, err := writeFull(c, text); err != nil {
		return err
	}

	_, err := writeFull(c, []byte{0})
	return err
}

// recvPayload reads the payload announced by hdr into buf.
// A payload that does not fit in buf is a protocol error.
func (c *conn) recvPayload(hdr frame.Header, buf []byte) ([]byte, error) {
	n := hdr.PayloadLength()
	if uint64(n) > uint64(len(buf)) {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%s announced %d bytes", hdr.Type, n)
	}

	if _, err := readFull(c, buf[:n]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return buf[:n], nil
}

// recvText reads the payload announced by hdr,
// and returns it up to, but not including, the first NUL.
func (c *conn) recvText(hdr frame.Header, buf []byte) ([]byte, error) {
	b, err := c.recvPayload(hdr, buf)
	if err != nil {
		return nil, err
	}

	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return b, nil
}
