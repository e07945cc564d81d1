package myftp

// myftp server counterpart

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/myftp/myftp/encoding/frame"
	"github.com/myftp/myftp/internal/pool"
)

// bufPoolDepth is how many idle connection buffers are kept for reuse.
const bufPoolDepth = 64

// ServerOption specifies an optional that can be set on a server.
type ServerOption func(*Server) error

// WithRootDir sets the directory served to clients.
// By default, the process working directory is served.
func WithRootDir(dir string) ServerOption {
	return func(s *Server) error {
		s.rootDir = dir
		return nil
	}
}

// WithLogger sets the logger used for connection events.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("nil logger")
		}

		s.logger = logger
		return nil
	}
}

// WithLister sets the tool that produces directory listings.
// By default, a NativeLister is used.
func WithLister(l Lister) ServerOption {
	return func(s *Server) error {
		if l == nil {
			return errors.New("nil lister")
		}

		s.lister = l
		return nil
	}
}

// WithChecksummer sets the tool that produces file digests.
// By default, a NativeChecksummer using SHA-256 is used.
func WithChecksummer(c Checksummer) ServerOption {
	return func(s *Server) error {
		if c == nil {
			return errors.New("nil checksummer")
		}

		s.checksummer = c
		return nil
	}
}

// WithRegisterer registers the server metrics with reg.
func WithRegisterer(reg prometheus.Registerer) ServerOption {
	return func(s *Server) error {
		s.registerer = reg
		return nil
	}
}

// WithDSCP marks every accepted connection with the given differentiated services code point.
func WithDSCP(dscp int) ServerOption {
	return func(s *Server) error {
		if dscp < 0 || dscp > maxDSCP {
			return errors.Errorf("dscp must be between 0 and %d: %d", maxDSCP, dscp)
		}

		s.dscp = dscp
		return nil
	}
}

// Server serves one directory over the myftp protocol.
//
// Every accepted connection is served by its own goroutine,
// which owns its socket, its scratch buffer and any file it opens.
// Connections share nothing but the filesystem.
type Server struct {
	rootDir     string
	realRoot    string
	logger      *slog.Logger
	lister      Lister
	checksummer Checksummer
	dscp        int
	registerer  prometheus.Registerer

	metrics *serverMetrics
	bufPool *pool.SlicePool[[]byte, byte]

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	closed    bool
}

// NewServer creates a new Server.
// A subsequent call to Serve or ListenAndServe is required.
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		logger:      slog.New(slog.DiscardHandler),
		lister:      NativeLister{},
		checksummer: NativeChecksummer{},
		metrics:     newServerMetrics(),
		bufPool:     pool.NewSlicePool[[]byte](bufPoolDepth, BufferSize),
		listeners:   make(map[net.Listener]struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		s.rootDir = wd
	}

	root, err := filepath.Abs(s.rootDir)
	if err != nil {
		return nil, errors.Wrap(err, "root directory")
	}

	fi, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "root directory")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("root directory %s is not a directory", root)
	}
	s.rootDir = root

	if s.realRoot, err = filepath.EvalSymlinks(root); err != nil {
		return nil, errors.Wrap(err, "root directory")
	}

	if s.registerer != nil {
		if err := s.metrics.register(s.registerer); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s, nil
}

// RootDir returns the absolute path of the directory being served.
func (s *Server) RootDir() string {
	return s.rootDir
}

// ListenAndServe listens on the TCP address addr, with a backlog of ListenBacklog,
// and then calls Serve to handle incoming connections.
func (s *Server) ListenAndServe(addr string) error {
	l, err := listen(addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}

	return s.Serve(l)
}

func (s *Server) trackListener(l net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		if s.closed {
			return false
		}
		s.listeners[l] = struct{}{}
	} else {
		delete(s.listeners, l)
	}

	return true
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Serve accepts incoming connections on l, and serves each one on a new goroutine.
// The acceptor keeps no handle on the goroutines it starts.
//
// Serve always returns a non-nil error, and closes l.
// After Close, the returned error is ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	if !s.trackListener(l, true) {
		l.Close()
		return ErrServerClosed
	}
	defer s.trackListener(l, false)
	defer l.Close()

	s.logger.Info("listening", "addr", l.Addr().String(), "root", s.rootDir)

	var tempDelay time.Duration // how long to sleep on accept failure

	for {
		c, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}

			// Running out of file descriptors and the like should not end the server.
			var ne net.Error
			if !errors.As(err, &ne) || !(ne.Temporary() || ne.Timeout()) {
				return err
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if max := 1 * time.Second; tempDelay > max {
				tempDelay = max
			}

			s.logger.Warn("accept failed", "error", err, "retry_in", tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		go s.ServeConn(c)
	}
}

// Close stops all listeners, and cancels any listing or checksum tool still running.
// Connections already accepted are served until they end.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true

	var err error
	for l := range s.listeners {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.mu.Unlock()

	s.cancel()
	return err
}

// ServeConn serves a single connection until the client quits, breaks the protocol, or the transport fails.
// The connection is always closed on return.
//
// It returns nil if the client quit, or hung up between requests.
func (s *Server) ServeConn(c net.Conn) error {
	s.metrics.connections.Inc()
	s.metrics.active.Inc()
	defer s.metrics.active.Dec()

	logger := s.logger.With("remote", c.RemoteAddr().String())

	if s.dscp != 0 {
		if err := setDSCP(c, s.dscp); err != nil {
			logger.Warn("cannot mark connection", "error", err)
		}
	}

	sc := &serverConn{
		conn:   conn{c},
		srv:    s,
		logger: logger,
		buf:    s.bufPool.Get(),
	}
	defer s.bufPool.Put(sc.buf)
	defer c.Close()

	logger.Debug("connection accepted")

	err := sc.serve(s.ctx)
	switch {
	case err == nil:
		logger.Debug("connection closed")
	case isProtocolError(err):
		s.metrics.protocolErrors.Inc()
		logger.Debug("protocol error", "error", err)
	default:
		logger.Debug("connection failed", "error", err)
	}

	return err
}

// resolve maps a client supplied name to a path inside the root directory.
// It reports false for names that are empty, or that would escape the root,
// either lexically or by following a symbolic link.
// A name that does not exist yet resolves when its parent directory does.
func (s *Server) resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	path := filepath.Join(s.rootDir, filepath.FromSlash(name))
	if !inside(s.rootDir, path) {
		return "", false
	}

	target, err := filepath.EvalSymlinks(path)
	if os.IsNotExist(err) {
		// A dangling link would be followed on create.
		if _, err := os.Lstat(path); err == nil {
			return "", false
		}

		dir, err := filepath.EvalSymlinks(filepath.Dir(path))
		if err != nil {
			return "", false
		}
		target = filepath.Join(dir, filepath.Base(path))
	} else if err != nil {
		return "", false
	}

	if !inside(s.realRoot, target) {
		return "", false
	}

	return path, true
}

// inside reports whether path lies strictly below root.
func inside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	return true
}

// regularFile reports the size of path, if it is a regular file that fits in a single frame.
func regularFile(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() || fi.Size() > frame.MaxPayloadSize {
		return 0, false
	}

	return fi.Size(), true
}

// capText truncates tool output so that it, and its NUL terminator, fit in one scratch buffer.
func capText(b []byte) []byte {
	if len(b) > BufferSize-1 {
		return b[:BufferSize-1]
	}
	return b
}

// serverConn is the per-connection request handler.
type serverConn struct {
	conn
	srv    *Server
	logger *slog.Logger
	buf    []byte
}

func (sc *serverConn) serve(ctx context.Context) error {
	hdr, err := sc.recvHeader()
	if err != nil {
		// No reply of any kind before the connection is open.
		return errors.Wrap(err, "read open request")
	}

	if hdr.Type != frame.MessageTypeOpenConnectionRequest {
		return errors.Wrapf(ErrUnexpectedMessage, "first message was %s", hdr.Type)
	}

	if err := sc.sendHeader(frame.OpenConnectionReply()); err != nil {
		return errors.Wrap(err, "send open reply")
	}

	for {
		hdr, err := sc.recvHeader()
		if err != nil {
			if err == io.EOF {
				return nil
			}

			if errors.Is(err, frame.ErrInvalidHeader) {
				sc.sendHeader(frame.QuitReply())
			}
			return err
		}

		sc.srv.metrics.request(hdr.Type)
		sc.logger.Debug("request", "type", hdr.Type.String(), "length", hdr.Length)

		switch hdr.Type {
		case frame.MessageTypeListRequest:
			err = sc.handleList(ctx)
		case frame.MessageTypeGetRequest:
			err = sc.handleGet(hdr)
		case frame.MessageTypePutRequest:
			err = sc.handlePut(hdr)
		case frame.MessageTypeShaRequest:
			err = sc.handleSha(ctx, hdr)
		case frame.MessageTypeQuitRequest:
			return errors.Wrap(sc.sendHeader(frame.QuitReply()), "send quit reply")
		default:
			sc.sendHeader(frame.QuitReply())
			return errors.Wrapf(ErrUnexpectedMessage, "request was %s", hdr.Type)
		}

		if err != nil {
			return err
		}
	}
}

func (sc *serverConn) readName(hdr frame.Header) (string, error) {
	name, err := sc.recvText(hdr, sc.buf)
	if err != nil {
		return "", errors.Wrapf(err, "read %s name", hdr.Type)
	}

	return string(name), nil
}

func (sc *serverConn) handleList(ctx context.Context) error {
	out, err := sc.srv.lister.List(ctx, sc.srv.rootDir)
	if err != nil {
		sc.logger.Warn("listing failed", "error", err)
	}

	out = capText(out)
	if len(out) == 0 {
		// A list reply must carry at least one byte of text.
		out = []byte("\n")
	}

	hdr, err := frame.ListReply(len(out) + 1)
	if err != nil {
		return err
	}

	return errors.Wrap(sc.sendText(hdr, out), "send list reply")
}

func (sc *serverConn) handleGet(req frame.Header) error {
	name, err := sc.readName(req)
	if err != nil {
		return err
	}

	path, ok := sc.srv.resolve(name)

	var size int64
	if ok {
		size, ok = regularFile(path)
	}

	if !ok {
		sc.logger.Debug("get: no such file", "name", name)
		return errors.Wrap(sc.sendHeader(frame.GetReply(false)), "send get reply")
	}

	data, err := frame.FileData(size)
	if err != nil {
		return err
	}

	if err := sc.sendHeader(frame.GetReply(true)); err != nil {
		return errors.Wrap(err, "send get reply")
	}

	if err := sc.sendHeader(data); err != nil {
		return errors.Wrap(err, "send file header")
	}

	n, err := sendFile(sc, path, size, sc.buf, sc.srv.metrics.sent)
	if err != nil {
		return err
	}

	sc.logger.Debug("get: sent", "name", name, "bytes", n)
	return nil
}

func (sc *serverConn) handlePut(req frame.Header) error {
	name, err := sc.readName(req)
	if err != nil {
		return err
	}

	path, ok := sc.srv.resolve(name)
	if ok {
		// Existing files are overwritten, but never directories or devices.
		if fi, err := os.Stat(path); err == nil && !fi.Mode().IsRegular() {
			ok = false
		}
	}

	var f *os.File
	if ok {
		if f, err = createFile(path); err != nil {
			sc.logger.Debug("put: cannot create", "name", name, "error", err)
			ok = false
		}
	}

	if !ok {
		sc.logger.Debug("put: refused", "name", name)
		return errors.Wrap(sc.sendHeader(frame.PutReply(false)), "send put reply")
	}

	if err := sc.sendHeader(frame.PutReply(true)); err != nil {
		f.Close()
		return errors.Wrap(err, "send put reply")
	}

	data, err := sc.expectHeader(frame.MessageTypeFileData)
	if err != nil {
		f.Close()
		return errors.Wrap(err, "read file header")
	}

	n, err := receiveFile(sc, f, int64(data.PayloadLength()), sc.buf, sc.srv.metrics.received)
	if err != nil {
		return err
	}

	sc.logger.Debug("put: received", "name", name, "bytes", n)
	return nil
}

func (sc *serverConn) handleSha(ctx context.Context, req frame.Header) error {
	name, err := sc.readName(req)
	if err != nil {
		return err
	}

	path, ok := sc.srv.resolve(name)
	if ok {
		_, ok = regularFile(path)
	}

	var out []byte
	if ok {
		rel, _ := filepath.Rel(sc.srv.rootDir, path)

		out, err = sc.srv.checksummer.Checksum(ctx, sc.srv.rootDir, rel)
		if err != nil {
			sc.logger.Warn("checksum failed", "name", name, "error", err)
		}
		ok = err == nil && len(out) > 0
	}

	if !ok {
		return errors.Wrap(sc.sendHeader(frame.ShaReply(false)), "send sha reply")
	}

	out = capText(out)

	data, err := frame.FileData(int64(len(out) + 1))
	if err != nil {
		return err
	}

	if err := sc.sendHeader(frame.ShaReply(true)); err != nil {
		return errors.Wrap(err, "send sha reply")
	}

	return errors.Wrap(sc.sendText(data, out), "send checksum")
}
