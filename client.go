package myftp

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/myftp/myftp/encoding/frame"
)

// ClientOption specifies an optional that can be set on a client.
type ClientOption func(*Client) error

// WithLocalDir sets the directory that relative local file names are resolved against.
// By default, the process working directory is used.
func WithLocalDir(dir string) ClientOption {
	return func(cl *Client) error {
		fi, err := os.Stat(dir)
		if err != nil {
			return errors.Wrap(err, "local directory")
		}
		if !fi.IsDir() {
			return errors.Errorf("local directory %s is not a directory", dir)
		}

		cl.localDir = dir
		return nil
	}
}

// WithClientLogger sets the logger used for debug output.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) error {
		if logger == nil {
			return errors.New("nil logger")
		}

		cl.logger = logger
		return nil
	}
}

// WithClientDSCP marks every connection with the given differentiated services code point.
func WithClientDSCP(dscp int) ClientOption {
	return func(cl *Client) error {
		if dscp < 0 || dscp > maxDSCP {
			return errors.Errorf("dscp must be between 0 and %d: %d", maxDSCP, dscp)
		}

		cl.dscp = dscp
		return nil
	}
}

// WithDialer sets the dialer used to connect to servers.
func WithDialer(d *net.Dialer) ClientOption {
	return func(cl *Client) error {
		if d == nil {
			return errors.New("nil dialer")
		}

		cl.dialer = d
		return nil
	}
}

// Client is a myftp session engine.
//
// It is either disconnected, or connected to exactly one server.
// Every operation sends one request and blocks until the whole reply has been received.
// A Client must not be used from multiple goroutines at the same time.
type Client struct {
	localDir string
	logger   *slog.Logger
	dialer   *net.Dialer
	dscp     int

	conn *conn
	addr string
	buf  []byte
}

// NewClient creates a new disconnected Client.
func NewClient(opts ...ClientOption) (*Client, error) {
	cl := &Client{
		logger: slog.New(slog.DiscardHandler),
		dialer: new(net.Dialer),
		buf:    make([]byte, BufferSize),
	}

	for _, opt := range opts {
		if err := opt(cl); err != nil {
			return nil, err
		}
	}

	return cl, nil
}

// Connected reports whether the client has an open session.
func (cl *Client) Connected() bool {
	return cl.conn != nil
}

// RemoteAddr returns the host:port of the connected server, or the empty string.
func (cl *Client) RemoteAddr() string {
	return cl.addr
}

// serverAddr validates an IP literal and a numeric port, and joins them.
func serverAddr(ip, port string) (string, error) {
	if net.ParseIP(ip) == nil {
		return "", errors.Wrapf(ErrInvalidAddress, "not an IP address: %q", ip)
	}

	if port == "" || strings.TrimLeft(port, "0123456789") != "" {
		return "", errors.Wrapf(ErrInvalidAddress, "not a port number: %q", port)
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", errors.Wrapf(ErrInvalidAddress, "port out of range: %q", port)
	}

	return net.JoinHostPort(ip, port), nil
}

// Open connects to the server at ip:port, and performs the open-connection exchange.
//
// The context only bounds the dial.
// If anything fails, the socket is closed, and the client stays disconnected.
func (cl *Client) Open(ctx context.Context, ip, port string) error {
	if cl.conn != nil {
		return ErrAlreadyConnected
	}

	addr, err := serverAddr(ip, port)
	if err != nil {
		return err
	}

	nc, err := cl.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "connect to %s", addr)
	}

	if cl.dscp != 0 {
		if err := setDSCP(nc, cl.dscp); err != nil {
			cl.logger.Warn("cannot mark connection", "addr", addr, "error", err)
		}
	}

	c := &conn{nc}

	if err := c.sendHeader(frame.OpenConnectionRequest()); err != nil {
		nc.Close()
		return errors.Wrapf(err, "send open request to %s", addr)
	}

	if _, err := c.expectHeader(frame.MessageTypeOpenConnectionReply); err != nil {
		nc.Close()
		return errors.Wrapf(err, "read open reply from %s", addr)
	}

	cl.conn = c
	cl.addr = addr

	cl.logger.Debug("connected", "addr", addr)
	return nil
}

// Close drops the connection without a quit exchange.
// It is not an error to close a disconnected client.
func (cl *Client) Close() error {
	if cl.conn == nil {
		return nil
	}

	err := cl.conn.Close()
	cl.conn = nil
	cl.addr = ""
	return err
}

// fail ends the session after a transport, protocol, or streaming failure.
func (cl *Client) fail(op string, err error) error {
	cl.logger.Debug("session ended", "op", op, "addr", cl.addr, "error", err)
	cl.Close()

	return &SessionError{
		Op:  op,
		Err: err,
	}
}

func (cl *Client) checkName(op, name string) error {
	if cl.conn == nil {
		return ErrNotConnected
	}

	if name == "" || strings.IndexByte(name, 0) >= 0 || len(name)+1 > BufferSize {
		return &fs.PathError{Op: op, Path: name, Err: ErrInvalidName}
	}

	return nil
}

// sendNamed sends a request header built by mk, followed by the NUL-terminated name.
func (cl *Client) sendNamed(mk func(int) (frame.Header, error), name string) error {
	hdr, err := mk(len(name) + 1)
	if err != nil {
		return err
	}

	return cl.conn.sendText(hdr, []byte(name))
}

func (cl *Client) localPath(name string) string {
	if cl.localDir == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(cl.localDir, name)
}

// List returns the server's directory listing, as produced by its listing tool.
func (cl *Client) List() ([]byte, error) {
	const op = "list"

	if cl.conn == nil {
		return nil, ErrNotConnected
	}

	if err := cl.conn.sendHeader(frame.ListRequest()); err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "send list request"))
	}

	hdr, err := cl.conn.expectHeader(frame.MessageTypeListReply)
	if err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "read list reply"))
	}

	text, err := cl.conn.recvText(hdr, cl.buf)
	if err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "read listing"))
	}

	return bytes.Clone(text), nil
}

// Sha256 returns the server's checksum output for the named file.
//
// If the server reports the file does not exist,
// it returns an error matching ErrRemoteNotExist, and the session stays open.
func (cl *Client) Sha256(name string) ([]byte, error) {
	const op = "sha256"

	if err := cl.checkName(op, name); err != nil {
		return nil, err
	}

	if err := cl.sendNamed(frame.ShaRequest, name); err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "send sha request"))
	}

	hdr, err := cl.conn.expectHeader(frame.MessageTypeShaReply)
	if err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "read sha reply"))
	}

	if hdr.Status != frame.StatusSuccess {
		return nil, &fs.PathError{Op: op, Path: name, Err: ErrRemoteNotExist}
	}

	hdr, err = cl.conn.expectHeader(frame.MessageTypeFileData)
	if err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "read checksum header"))
	}

	text, err := cl.conn.recvText(hdr, cl.buf)
	if err != nil {
		return nil, cl.fail(op, errors.Wrap(err, "read checksum"))
	}

	return bytes.Clone(text), nil
}

// Get downloads the named file into the local directory, and returns the number of bytes received.
//
// If the server reports the file does not exist,
// it returns an error matching ErrRemoteNotExist, and the session stays open.
// A failure while streaming ends the session, and may leave a truncated local file.
func (cl *Client) Get(name string) (int64, error) {
	const op = "get"

	if err := cl.checkName(op, name); err != nil {
		return 0, err
	}

	if err := cl.sendNamed(frame.GetRequest, name); err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "send get request"))
	}

	hdr, err := cl.conn.expectHeader(frame.MessageTypeGetReply)
	if err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "read get reply"))
	}

	if hdr.Status != frame.StatusSuccess {
		return 0, &fs.PathError{Op: op, Path: name, Err: ErrRemoteNotExist}
	}

	hdr, err = cl.conn.expectHeader(frame.MessageTypeFileData)
	if err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "read file header"))
	}

	size := int64(hdr.PayloadLength())

	f, err := createFile(cl.localPath(name))
	if err != nil {
		// The file data is still on the wire.
		return 0, cl.fail(op, err)
	}

	n, err := receiveFile(cl.conn, f, size, cl.buf, nil)
	if err != nil {
		return n, cl.fail(op, err)
	}

	cl.logger.Debug("downloaded", "name", name, "bytes", n)
	return n, nil
}

// Put uploads the named local file, and returns the number of bytes sent.
//
// The local file is checked before anything is sent:
// if it is not a regular file, Put returns an error matching ErrLocalNotExist,
// and the session stays open.
func (cl *Client) Put(name string) (int64, error) {
	const op = "put"

	if err := cl.checkName(op, name); err != nil {
		return 0, err
	}

	path := cl.localPath(name)

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return 0, &fs.PathError{Op: op, Path: name, Err: ErrLocalNotExist}
	}

	data, err := frame.FileData(fi.Size())
	if err != nil {
		return 0, &fs.PathError{Op: op, Path: name, Err: ErrFileTooLarge}
	}

	if err := cl.sendNamed(frame.PutRequest, name); err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "send put request"))
	}

	hdr, err := cl.conn.expectHeader(frame.MessageTypePutReply)
	if err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "read put reply"))
	}

	if hdr.Status != frame.StatusSuccess {
		return 0, &fs.PathError{Op: op, Path: name, Err: ErrRemoteRefused}
	}

	if err := cl.conn.sendHeader(data); err != nil {
		return 0, cl.fail(op, errors.Wrap(err, "send file header"))
	}

	n, err := sendFile(cl.conn, path, fi.Size(), cl.buf, nil)
	if err != nil {
		return n, cl.fail(op, err)
	}

	cl.logger.Debug("uploaded", "name", name, "bytes", n)
	return n, nil
}

// Quit performs the quit exchange, and closes the connection whatever the outcome.
func (cl *Client) Quit() error {
	const op = "quit"

	if cl.conn == nil {
		return ErrNotConnected
	}

	if err := cl.conn.sendHeader(frame.QuitRequest()); err != nil {
		return cl.fail(op, errors.Wrap(err, "send quit request"))
	}

	if _, err := cl.conn.expectHeader(frame.MessageTypeQuitReply); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return cl.fail(op, errors.Wrap(err, "read quit reply"))
	}

	cl.logger.Debug("disconnected", "addr", cl.addr)
	return cl.Close()
}
