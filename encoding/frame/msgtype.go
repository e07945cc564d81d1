package frame

import (
	"fmt"
)

// MessageType defines the various myftp message types.
type MessageType uint8

// Request and reply message types.
const (
	MessageTypeOpenConnectionRequest = MessageType(0xa1 + iota)
	MessageTypeOpenConnectionReply
	MessageTypeListRequest
	MessageTypeListReply
	MessageTypeGetRequest
	MessageTypeGetReply
	MessageTypePutRequest
	MessageTypePutReply
	MessageTypeShaRequest
	MessageTypeShaReply
	MessageTypeQuitRequest
	MessageTypeQuitReply
)

// MessageTypeFileData announces a payload of length-12 bytes of file content or tool output.
const MessageTypeFileData = MessageType(0xff)

func (t MessageType) String() string {
	switch t {
	case MessageTypeOpenConnectionRequest:
		return "OPEN_CONN_REQUEST"
	case MessageTypeOpenConnectionReply:
		return "OPEN_CONN_REPLY"
	case MessageTypeListRequest:
		return "LIST_REQUEST"
	case MessageTypeListReply:
		return "LIST_REPLY"
	case MessageTypeGetRequest:
		return "GET_REQUEST"
	case MessageTypeGetReply:
		return "GET_REPLY"
	case MessageTypePutRequest:
		return "PUT_REQUEST"
	case MessageTypePutReply:
		return "PUT_REPLY"
	case MessageTypeShaRequest:
		return "SHA_REQUEST"
	case MessageTypeShaReply:
		return "SHA_REPLY"
	case MessageTypeQuitRequest:
		return "QUIT_REQUEST"
	case MessageTypeQuitReply:
		return "QUIT_REPLY"
	case MessageTypeFileData:
		return "FILE_DATA"
	default:
		return fmt.Sprintf("UNKNOWN(%#02x)", uint8(t))
	}
}

// IsRequest reports whether t is sent by a client to start an exchange.
func (t MessageType) IsRequest() bool {
	switch t {
	case MessageTypeOpenConnectionRequest,
		MessageTypeListRequest,
		MessageTypeGetRequest,
		MessageTypePutRequest,
		MessageTypeShaRequest,
		MessageTypeQuitRequest:
		return true
	}
	return false
}

// Reply returns the reply type that answers the request type t.
// It returns false if t is not a request type.
func (t MessageType) Reply() (MessageType, bool) {
	if !t.IsRequest() {
		return 0, false
	}
	// Every reply immediately follows its request in the numbering.
	return t + 1, true
}

// Status is the outcome byte of a header.
type Status uint8

// Status values.
const (
	StatusFailure = Status(0)
	StatusSuccess = Status(1)
)

// StatusFromBool returns StatusSuccess for true, and StatusFailure for false.
func StatusFromBool(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

func (s Status) String() string {
	switch s {
	case StatusFailure:
		return "FAILURE"
	case StatusSuccess:
		return "SUCCESS"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}
