package frame

func fixed(t MessageType, s Status) Header {
	return Header{
		Type:   t,
		Status: s,
		Length: HeaderSize,
	}
}

// withPayload builds a header announcing n bytes of payload.
func withPayload(t MessageType, s Status, n int64) (Header, error) {
	if n < 0 || n > MaxPayloadSize {
		return Header{}, ErrPayloadTooLarge
	}

	return Header{
		Type:   t,
		Status: s,
		Length: uint32(HeaderSize + n),
	}, nil
}

// OpenConnectionRequest is the first frame a client sends on a new connection.
func OpenConnectionRequest() Header {
	return fixed(MessageTypeOpenConnectionRequest, StatusSuccess)
}

// OpenConnectionReply accepts a new connection.
func OpenConnectionReply() Header {
	return fixed(MessageTypeOpenConnectionReply, StatusSuccess)
}

// ListRequest asks for a listing of the server's working directory.
func ListRequest() Header {
	return fixed(MessageTypeListRequest, StatusSuccess)
}

// ListReply announces n bytes of listing text, including its NUL terminator.
func ListReply(n int) (Header, error) {
	return withPayload(MessageTypeListReply, StatusSuccess, int64(n))
}

// GetRequest announces a download request carrying an n byte NUL-terminated name.
func GetRequest(n int) (Header, error) {
	return withPayload(MessageTypeGetRequest, StatusSuccess, int64(n))
}

// GetReply tells the client whether the requested file exists.
// A found reply is followed by a FileData frame.
func GetReply(found bool) Header {
	return fixed(MessageTypeGetReply, StatusFromBool(found))
}

// PutRequest announces an upload request carrying an n byte NUL-terminated name.
func PutRequest(n int) (Header, error) {
	return withPayload(MessageTypePutRequest, StatusSuccess, int64(n))
}

// PutReply tells the client whether to go ahead with the upload.
func PutReply(accepted bool) Header {
	return fixed(MessageTypePutReply, StatusFromBool(accepted))
}

// ShaRequest announces a checksum request carrying an n byte NUL-terminated name.
func ShaRequest(n int) (Header, error) {
	return withPayload(MessageTypeShaRequest, StatusSuccess, int64(n))
}

// ShaReply tells the client whether the requested file exists.
// A found reply is followed by a FileData frame carrying the digest text.
func ShaReply(found bool) Header {
	return fixed(MessageTypeShaReply, StatusFromBool(found))
}

// QuitRequest asks the server to end the connection.
func QuitRequest() Header {
	return fixed(MessageTypeQuitRequest, StatusSuccess)
}

// QuitReply acknowledges the end of a connection.
func QuitReply() Header {
	return fixed(MessageTypeQuitReply, StatusSuccess)
}

// FileData announces n bytes of data following the header.
func FileData(n int64) (Header, error) {
	return withPayload(MessageTypeFileData, StatusSuccess, n)
}
