package myftp

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myftp/myftp/encoding/frame"
)

// fakeServer accepts a single connection on a loopback port, and hands it to handle.
func fakeServer(t *testing.T, handle func(c *conn)) (host, port string) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		nc, err := l.Accept()
		if err != nil {
			return
		}
		defer nc.Close()

		handle(&conn{nc})
	}()

	host, port, err = net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	return host, port
}

// acceptOpen performs the server side of the open exchange.
func acceptOpen(t *testing.T, c *conn) bool {
	if _, err := c.expectHeader(frame.MessageTypeOpenConnectionRequest); !assert.NoError(t, err) {
		return false
	}
	return assert.NoError(t, c.sendHeader(frame.OpenConnectionReply()))
}

// skipRequest reads a request header and its payload.
func skipRequest(t *testing.T, c *conn, want frame.MessageType) bool {
	hdr, err := c.expectHeader(want)
	if !assert.NoError(t, err) {
		return false
	}
	_, err = c.recvPayload(hdr, make([]byte, BufferSize))
	return assert.NoError(t, err)
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		ip, port string
		want     string
		ok       bool
	}{
		{"127.0.0.1", "2121", "127.0.0.1:2121", true},
		{"::1", "21", "[::1]:21", true},
		{"10.0.0.1", "0", "10.0.0.1:0", true},
		{"localhost", "21", "", false},
		{"127.0.0.1", "ftp", "", false},
		{"127.0.0.1", "-1", "", false},
		{"127.0.0.1", "+21", "", false},
		{"127.0.0.1", "", "", false},
		{"127.0.0.1", "65536", "", false},
		{"256.0.0.1", "21", "", false},
	}

	for _, tt := range tests {
		got, err := serverAddr(tt.ip, tt.port)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidAddress, "serverAddr(%q, %q)", tt.ip, tt.port)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestClientNotConnected(t *testing.T) {
	cl, err := NewClient()
	require.NoError(t, err)

	assert.False(t, cl.Connected())
	assert.Empty(t, cl.RemoteAddr())

	_, err = cl.List()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.Get("x")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.Put("x")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.Sha256("x")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, cl.Quit(), ErrNotConnected)
	assert.NoError(t, cl.Close())
}

func TestClientOpen(t *testing.T) {
	_, addr := newTestServer(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cl, err := NewClient()
	require.NoError(t, err)

	assert.ErrorIs(t, cl.Open(context.Background(), "example.com", port), ErrInvalidAddress)
	assert.False(t, cl.Connected())

	require.NoError(t, cl.Open(context.Background(), host, port))
	assert.True(t, cl.Connected())
	assert.Equal(t, addr, cl.RemoteAddr())

	assert.ErrorIs(t, cl.Open(context.Background(), host, port), ErrAlreadyConnected)
	assert.True(t, cl.Connected(), "a refused open leaves the session alone")

	require.NoError(t, cl.Quit())
	assert.False(t, cl.Connected())
	assert.Empty(t, cl.RemoteAddr())
}

func TestClientOpenRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	l.Close()

	cl, err := NewClient()
	require.NoError(t, err)

	assert.Error(t, cl.Open(context.Background(), host, port))
	assert.False(t, cl.Connected())
}

func TestClientOpenBadReply(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
		want  error
	}{
		{"wrong type", frame.QuitReply().AppendBinary(nil), ErrUnexpectedMessage},
		{"failed status", frame.Header{Type: frame.MessageTypeOpenConnectionReply, Length: frame.HeaderSize}.AppendBinary(nil), frame.ErrBadStatus},
		{"garbage", []byte("not a header"), frame.ErrInvalidHeader},
		{"hang up", nil, io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := fakeServer(t, func(c *conn) {
				if _, err := c.expectHeader(frame.MessageTypeOpenConnectionRequest); !assert.NoError(t, err) {
					return
				}
				c.Write(tt.reply)
			})

			cl, err := NewClient()
			require.NoError(t, err)

			err = cl.Open(context.Background(), host, port)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, cl.Connected())
		})
	}
}

func TestClientInvalidName(t *testing.T) {
	_, addr := newTestServer(t)
	cl, _ := newTestClient(t, addr)

	for _, name := range []string{"", "a\x00b", strings.Repeat("a", BufferSize)} {
		_, err := cl.Get(name)
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = cl.Sha256(name)
		assert.ErrorIs(t, err, ErrInvalidName)
	}

	assert.True(t, cl.Connected())
}

func TestClientSessionEndsOnInvalidReply(t *testing.T) {
	host, port := fakeServer(t, func(c *conn) {
		if !acceptOpen(t, c) {
			return
		}
		if _, err := c.expectHeader(frame.MessageTypeListRequest); !assert.NoError(t, err) {
			return
		}
		c.Write([]byte("garbage-here"))
	})

	cl, err := NewClient()
	require.NoError(t, err)
	require.NoError(t, cl.Open(context.Background(), host, port))

	_, err = cl.List()
	assert.True(t, IsSessionEnded(err))
	assert.ErrorIs(t, err, frame.ErrInvalidHeader)
	assert.False(t, cl.Connected())

	_, err = cl.List()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientSessionEndsOnOversizedListing(t *testing.T) {
	host, port := fakeServer(t, func(c *conn) {
		if !acceptOpen(t, c) {
			return
		}
		if _, err := c.expectHeader(frame.MessageTypeListRequest); !assert.NoError(t, err) {
			return
		}
		hdr, _ := frame.ListReply(BufferSize + 1)
		c.sendHeader(hdr)
	})

	cl, err := NewClient()
	require.NoError(t, err)
	require.NoError(t, cl.Open(context.Background(), host, port))

	_, err = cl.List()
	assert.True(t, IsSessionEnded(err))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestClientGetServerHangsUp(t *testing.T) {
	host, port := fakeServer(t, func(c *conn) {
		if !acceptOpen(t, c) || !skipRequest(t, c, frame.MessageTypeGetRequest) {
			return
		}
		c.sendHeader(frame.GetReply(true))
		hdr, _ := frame.FileData(1000)
		c.sendHeader(hdr)
		c.Write([]byte("ten bytes!"))
	})

	local := t.TempDir()
	cl, err := NewClient(WithLocalDir(local))
	require.NoError(t, err)
	require.NoError(t, cl.Open(context.Background(), host, port))

	_, err = cl.Get("big")
	assert.True(t, IsSessionEnded(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, cl.Connected())

	// The partial download is left behind.
	assert.FileExists(t, filepath.Join(local, "big"))
}

func TestClientPutRefused(t *testing.T) {
	host, port := fakeServer(t, func(c *conn) {
		if !acceptOpen(t, c) || !skipRequest(t, c, frame.MessageTypePutRequest) {
			return
		}
		c.sendHeader(frame.PutReply(false))
		if _, err := c.expectHeader(frame.MessageTypeQuitRequest); assert.NoError(t, err) {
			c.sendHeader(frame.QuitReply())
		}
	})

	local := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(local, "f"), []byte("data"), 0o644))

	cl, err := NewClient(WithLocalDir(local))
	require.NoError(t, err)
	require.NoError(t, cl.Open(context.Background(), host, port))

	_, err = cl.Put("f")
	assert.ErrorIs(t, err, ErrRemoteRefused)
	assert.False(t, IsSessionEnded(err))
	assert.True(t, cl.Connected())

	assert.NoError(t, cl.Quit())
}

func TestClientQuitWithoutReply(t *testing.T) {
	host, port := fakeServer(t, func(c *conn) {
		if !acceptOpen(t, c) {
			return
		}
		c.expectHeader(frame.MessageTypeQuitRequest)
	})

	cl, err := NewClient()
	require.NoError(t, err)
	require.NoError(t, cl.Open(context.Background(), host, port))

	err = cl.Quit()
	assert.True(t, IsSessionEnded(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, cl.Connected())
}

func TestClientOptions(t *testing.T) {
	_, err := NewClient(WithLocalDir(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, err)

	_, err = NewClient(WithClientDSCP(64))
	assert.Error(t, err)

	_, err = NewClient(WithClientDSCP(-1))
	assert.Error(t, err)

	_, err = NewClient(WithDialer(nil))
	assert.Error(t, err)

	_, err = NewClient(WithClientLogger(nil))
	assert.Error(t, err)

	cl, err := NewClient(WithClientDSCP(46), WithDialer(new(net.Dialer)))
	require.NoError(t, err)
	assert.Equal(t, 46, cl.dscp)
}
