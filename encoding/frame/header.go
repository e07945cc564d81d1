package frame

import (
	"bytes"
	"encoding/binary"
)

// Header is the fixed-size start of every myftp frame.
type Header struct {
	Type   MessageType
	Status Status
	Length uint32 // total frame length, including the header itself.
}

// PayloadLength returns the number of payload bytes that follow the header.
// It is only meaningful for a header that passes Validate.
func (h Header) PayloadLength() uint32 {
	return h.Length - HeaderSize
}

// Validate checks h against the structural rules of its message type.
// Any error returned matches ErrInvalidHeader.
func (h Header) Validate() error {
	switch h.Type {
	case MessageTypeOpenConnectionRequest,
		MessageTypeListRequest,
		MessageTypePutReply,
		MessageTypeQuitRequest,
		MessageTypeQuitReply:
		if h.Length != HeaderSize {
			return invalid(h, ErrBadLength)
		}

	case MessageTypeOpenConnectionReply:
		if h.Status != StatusSuccess {
			return invalid(h, ErrBadStatus)
		}
		if h.Length != HeaderSize {
			return invalid(h, ErrBadLength)
		}

	case MessageTypeListReply,
		MessageTypeGetRequest,
		MessageTypePutRequest,
		MessageTypeShaRequest:
		// At least one byte of text, plus its NUL terminator.
		if h.Length <= HeaderSize+1 {
			return invalid(h, ErrBadLength)
		}

	case MessageTypeGetReply,
		MessageTypeShaReply:
		if h.Status != StatusFailure && h.Status != StatusSuccess {
			return invalid(h, ErrBadStatus)
		}
		if h.Length != HeaderSize {
			return invalid(h, ErrBadLength)
		}

	case MessageTypeFileData:
		if h.Length < HeaderSize {
			return invalid(h, ErrBadLength)
		}

	default:
		return invalid(h, ErrUnknownType)
	}

	return nil
}

// AppendBinary appends the 12-byte encoding of h to b.
// It does not validate h.
func (h Header) AppendBinary(b []byte) []byte {
	magic := Magic()
	b = append(b, magic[:]...)
	b = append(b, byte(h.Type), byte(h.Status))
	return binary.BigEndian.AppendUint32(b, h.Length)
}

// MarshalBinary returns the 12-byte encoding of h.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize)), nil
}

// UnmarshalBinary decodes and validates a header from the first HeaderSize bytes of data.
//
// On error, h is still populated with whatever fields could be read,
// which is useful for diagnostics, but must not be trusted.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return invalid(*h, ErrShortHeader)
	}

	h.Type = MessageType(data[MagicSize])
	h.Status = Status(data[MagicSize+1])
	h.Length = binary.BigEndian.Uint32(data[MagicSize+2:])

	magic := Magic()
	if !bytes.Equal(data[:MagicSize], magic[:]) {
		return invalid(*h, ErrBadMagic)
	}

	return h.Validate()
}

// Decode decodes and validates a header from the first HeaderSize bytes of data.
func Decode(data []byte) (Header, error) {
	var h Header
	err := h.UnmarshalBinary(data)
	return h, err
}
