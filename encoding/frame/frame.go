// Package frame implements the wire encoding of the myftp protocol.
//
// Every frame starts with a fixed 12-byte header:
//
//	byte[6]  magic   0xC1 0xA1 0x10 'f' 't' 'p'
//	byte     type    see MessageType
//	byte     status  see Status
//	uint32   length  total frame length including the header, big-endian
//
// Payload bytes, when present, follow the header immediately,
// and there are always exactly length-12 of them.
package frame

import (
	"math"
)

// HeaderSize is the encoded size of a Header.
const HeaderSize = 12

// MagicSize is the size of the protocol tag at the start of every header.
const MagicSize = 6

// MaxPayloadSize is the largest payload a single frame can announce.
const MaxPayloadSize = math.MaxUint32 - HeaderSize

// Magic returns the protocol tag that starts every header.
func Magic() [MagicSize]byte {
	return [MagicSize]byte{0xc1, 0xa1, 0x10, 'f', 't', 'p'}
}
