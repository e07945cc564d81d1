package frame

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestHeaderMarshal(t *testing.T) {
	h := Header{
		Type:   MessageTypeGetRequest,
		Status: StatusSuccess,
		Length: 0x01020304,
	}

	data, err := h.MarshalBinary()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	want := []byte{
		0xc1, 0xa1, 0x10, 'f', 't', 'p',
		0xa5,
		0x01,
		0x01, 0x02, 0x03, 0x04,
	}

	if !bytes.Equal(data, want) {
		t.Errorf("Header.MarshalBinary() = %X, but wanted %X", data, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, h := range []Header{
		OpenConnectionRequest(),
		OpenConnectionReply(),
		ListRequest(),
		{Type: MessageTypeListReply, Status: StatusSuccess, Length: 14},
		{Type: MessageTypeGetRequest, Status: StatusSuccess, Length: 20},
		GetReply(true),
		GetReply(false),
		{Type: MessageTypePutRequest, Status: StatusSuccess, Length: math.MaxUint32},
		PutReply(true),
		PutReply(false),
		{Type: MessageTypeShaRequest, Status: StatusSuccess, Length: 100},
		ShaReply(true),
		ShaReply(false),
		QuitRequest(),
		QuitReply(),
		{Type: MessageTypeFileData, Status: StatusSuccess, Length: HeaderSize},
		{Type: MessageTypeFileData, Status: StatusSuccess, Length: 50*1024 + HeaderSize},
	} {
		t.Run(h.Type.String(), func(t *testing.T) {
			data, err := h.MarshalBinary()
			if err != nil {
				t.Fatal("unexpected error:", err)
			}

			if len(data) != HeaderSize {
				t.Fatalf("encoded length = %d, wanted %d", len(data), HeaderSize)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatal("unexpected error:", err)
			}

			if got != h {
				t.Errorf("Decode() = %+v, but wanted %+v", got, h)
			}

			if got.PayloadLength() != h.Length-HeaderSize {
				t.Errorf("PayloadLength() = %d, but wanted %d", got.PayloadLength(), h.Length-HeaderSize)
			}
		})
	}
}

func TestDecodeBadMagic(t *testing.T) {
	valid, _ := QuitReply().MarshalBinary()

	for i := 0; i < MagicSize; i++ {
		data := bytes.Clone(valid)
		data[i] ^= 0xff

		_, err := Decode(data)
		if !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("byte %d: Decode() = %v, wanted ErrInvalidHeader", i, err)
		}
		if !errors.Is(err, ErrBadMagic) {
			t.Errorf("byte %d: Decode() = %v, wanted ErrBadMagic", i, err)
		}
	}

	// The rest of the header does not matter once the magic is wrong.
	data := []byte{'n', 'o', 't', 'f', 't', 'p', 0xa1, 1, 0, 0, 0, 12}
	if _, err := Decode(data); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Decode() = %v, wanted ErrBadMagic", err)
	}
}

func TestDecodeShortHeader(t *testing.T) {
	data, _ := QuitReply().MarshalBinary()

	if _, err := Decode(data[:HeaderSize-1]); !errors.Is(err, ErrShortHeader) {
		t.Errorf("Decode() = %v, wanted ErrShortHeader", err)
	}
}

func TestDecodeInvariants(t *testing.T) {
	tests := []struct {
		name   string
		header Header
		want   error
	}{
		{"unknown type", Header{Type: 0x00, Status: 1, Length: 12}, ErrUnknownType},
		{"unknown type between ranges", Header{Type: 0xad, Status: 1, Length: 12}, ErrUnknownType},
		{"quit reply too long", Header{Type: MessageTypeQuitReply, Status: 1, Length: 13}, ErrBadLength},
		{"quit request too short", Header{Type: MessageTypeQuitRequest, Status: 1, Length: 11}, ErrBadLength},
		{"list request with payload", Header{Type: MessageTypeListRequest, Status: 1, Length: 20}, ErrBadLength},
		{"open reply failure", Header{Type: MessageTypeOpenConnectionReply, Status: 0, Length: 12}, ErrBadStatus},
		{"open reply long", Header{Type: MessageTypeOpenConnectionReply, Status: 1, Length: 13}, ErrBadLength},
		{"get request empty name", Header{Type: MessageTypeGetRequest, Status: 1, Length: 12}, ErrBadLength},
		{"get request only nul", Header{Type: MessageTypeGetRequest, Status: 1, Length: 13}, ErrBadLength},
		{"put request only nul", Header{Type: MessageTypePutRequest, Status: 1, Length: 13}, ErrBadLength},
		{"sha request only nul", Header{Type: MessageTypeShaRequest, Status: 1, Length: 13}, ErrBadLength},
		{"list reply only nul", Header{Type: MessageTypeListReply, Status: 1, Length: 13}, ErrBadLength},
		{"get reply bad status", Header{Type: MessageTypeGetReply, Status: 2, Length: 12}, ErrBadStatus},
		{"sha reply with payload", Header{Type: MessageTypeShaReply, Status: 1, Length: 14}, ErrBadLength},
		{"file data too short", Header{Type: MessageTypeFileData, Status: 1, Length: 11}, ErrBadLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := tt.header.MarshalBinary()

			_, err := Decode(data)
			if !errors.Is(err, ErrInvalidHeader) {
				t.Fatalf("Decode() = %v, wanted ErrInvalidHeader", err)
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() = %v, wanted %v", err, tt.want)
			}

			var hdrErr *InvalidHeaderError
			if !errors.As(err, &hdrErr) {
				t.Fatalf("Decode() = %T, wanted *InvalidHeaderError", err)
			}

			if hdrErr.Header != tt.header {
				t.Errorf("InvalidHeaderError.Header = %+v, wanted %+v", hdrErr.Header, tt.header)
			}
		})
	}
}

func TestPayloadConstructors(t *testing.T) {
	h, err := GetRequest(len("foo\x00"))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if h.Length != HeaderSize+4 {
		t.Errorf("GetRequest(4).Length = %d, wanted %d", h.Length, HeaderSize+4)
	}

	if err := h.Validate(); err != nil {
		t.Errorf("GetRequest(4).Validate() = %v", err)
	}

	h, err = FileData(0)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if h.Length != HeaderSize || h.PayloadLength() != 0 {
		t.Errorf("FileData(0) = %+v, wanted an empty payload", h)
	}

	if _, err := FileData(MaxPayloadSize); err != nil {
		t.Errorf("FileData(MaxPayloadSize) = %v", err)
	}

	if _, err := FileData(MaxPayloadSize + 1); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("FileData(MaxPayloadSize+1) = %v, wanted ErrPayloadTooLarge", err)
	}

	if _, err := ListReply(-1); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("ListReply(-1) = %v, wanted ErrPayloadTooLarge", err)
	}
}
