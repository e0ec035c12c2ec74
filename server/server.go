package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultControlPort is the well-known control port described in §6
// (build-time default 49999).
const DefaultControlPort = 49999

// DefaultBacklog is the reference implementation's listen backlog B
// (§4.6, default 4).
const DefaultBacklog = 4

// ErrServerClosed is returned by Serve/ListenAndServe after Shutdown.
var ErrServerClosed = errors.New("mftp: server closed")

// Server is the connection acceptor of §4.6: it binds the control
// port and runs one goroutine per accepted connection, the sanctioned
// equivalent of the reference's process-per-connection model, provided
// each session's control/data sockets and virtual cwd stay private to
// it.
type Server struct {
	logger     *logrus.Logger
	backlog    int
	startDir   string
	listerArgv func(dir string) []string

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// New creates a Server with the given options applied.
func New(opts ...Option) *Server {
	s := &Server{
		logger:  logrus.New(),
		backlog: DefaultBacklog,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.startDir == "" {
		if wd, err := os.Getwd(); err == nil {
			s.startDir = wd
		} else {
			s.startDir = "."
		}
	}
	return s
}

// ListenAndServe binds addr (":<port>" or "host:port") and serves
// until the listener is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mftp: listen on %s: %w", addr, err)
	}
	s.logger.WithField("addr", addr).Info("listening")
	return s.Serve(ln)
}

// Serve accepts connections on l until it is closed, handling each in
// its own goroutine. Accept errors that occur after Shutdown has
// closed the listener are reported as ErrServerClosed; other accept
// errors are logged and the loop continues, matching §4.6's retry
// requirement for interrupted accept calls.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	defer l.Close()

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return ErrServerClosed
			}
			s.logger.WithError(err).Warn("accept error, retrying")
			continue
		}
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting new connections by closing the listener.
// In-flight sessions are left to finish on their own, consistent with
// §7's rule that only a transport failure on a session's own control
// socket ends it.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	sess, err := newSession(conn, s.startDir, s.logger)
	if err != nil {
		s.logger.WithError(err).Error("failed to start session")
		conn.Close()
		return
	}
	sess.listerArgv = s.listerArgv
	sess.serve()
}
