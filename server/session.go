package server

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tillberg/mftp/internal/lineio"
	"github.com/tillberg/mftp/internal/sidecmd"
	"github.com/tillberg/mftp/protocol"
)

// session is the server side of §4.5: it owns exactly one control
// socket and, for at most the duration of a single data-bearing
// command, one data socket. Everything within a session runs
// sequentially.
type session struct {
	id     string
	conn   net.Conn
	cwd    *workingDir
	logger *logrus.Entry

	dataConn net.Conn // non-nil only between a DATA ack and the next data-bearing command

	listerArgv func(dir string) []string
}

func newSession(conn net.Conn, startDir string, logger *logrus.Logger) (*session, error) {
	cwd, err := newWorkingDir(startDir)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &session{
		id:     id,
		conn:   conn,
		cwd:    cwd,
		logger: logger.WithField("session", id),
	}, nil
}

// serve runs the session's command loop until the control socket is
// closed or a transport failure occurs. Per §7's propagation policy, a
// per-command failure is reported over the wire and the loop
// continues; only a transport failure on the control socket itself
// ends the session.
func (s *session) serve() {
	defer s.closeDataConn()
	defer s.conn.Close()
	s.logger.Info("session started")

	for {
		kind, arg, err := protocol.ReadControlMessage(s.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrEOFResponse) {
				s.logger.Debug("control socket closed by client")
				return
			}
			var protoErr *protocol.ProtocolError
			if errors.As(err, &protoErr) {
				// A framing-level protocol error (e.g. an unrecognized
				// wire code) is a per-command failure, not a transport
				// failure: report it and keep the session alive.
				s.logger.WithError(err).Debug("malformed control message")
				if werr := protocol.WriteError(s.conn, protoErr.Reason); werr != nil {
					s.logger.WithError(werr).Warn("control socket write failed")
					return
				}
				continue
			}
			s.logger.WithError(err).Warn("control socket read failed")
			return
		}

		s.logger.WithFields(logrus.Fields{"kind": kind, "arg": arg}).Debug("<- control")

		if kind == protocol.EXIT {
			protocol.WriteAck(s.conn)
			s.logger.Info("session exiting")
			return
		}

		if err := s.dispatch(kind, arg); err != nil {
			if isTransportFailure(err) {
				s.logger.WithError(err).Warn("control socket write failed")
				return
			}
			s.logger.WithError(err).Debug("command failed")
		}
	}
}

// dispatch implements §4.5 step 3: DATA opens the session's one data
// socket; non-data kinds ack or error directly; data-bearing kinds
// consume the previously opened data socket.
func (s *session) dispatch(kind protocol.Kind, arg string) error {
	switch kind {
	case protocol.DATA:
		return s.handleDATA()
	case protocol.RCD:
		return s.handleRCD(arg)
	case protocol.RLS:
		return s.handleRLS()
	case protocol.GET:
		return s.handleGET(arg)
	case protocol.SHOW:
		return s.handleSHOW(arg)
	case protocol.PUT:
		return s.handlePUT(arg)
	default:
		return protocol.WriteError(s.conn, fmt.Sprintf("unsupported command %s", kind))
	}
}

// handleDATA implements the server side of the D/A<port> handshake
// (§4.3 step 2/3, §9): bind an ephemeral listener, send its port
// *before* accepting, accept exactly one peer, close the listener, and
// store the accepted socket as the session's data socket. There is no
// second ack for DATA itself.
func (s *session) handleDATA() error {
	s.closeDataConn() // at most one data socket per session (§4.6)

	conn, err := s.openDataListener()
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	s.dataConn = conn
	return nil
}

// takeDataConn returns and clears the session's data socket, or a
// protocol error if a data-bearing command arrives with none open.
func (s *session) takeDataConn() (net.Conn, error) {
	if s.dataConn == nil {
		return nil, &protocol.ProtocolError{Op: "data-bearing command", Reason: "no data socket open"}
	}
	conn := s.dataConn
	s.dataConn = nil
	return conn, nil
}

func (s *session) closeDataConn() {
	if s.dataConn != nil {
		s.dataConn.Close()
		s.dataConn = nil
	}
}

// handleRCD implements RCD (§4.5): chdir the session's virtual cwd;
// ack or report the errno-derived reason. The cwd is left unchanged on
// failure.
func (s *session) handleRCD(arg string) error {
	if err := s.cwd.Chdir(arg); err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	return protocol.WriteAck(s.conn)
}

// handleRLS implements RLS (§4.5): stream the session directory's
// listing through the data socket, ack, close the data socket.
func (s *session) handleRLS() error {
	dataConn, err := s.takeDataConn()
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	defer dataConn.Close()

	argv := sidecmd.DirectoryListing(s.cwd.Dir())
	if s.listerArgv != nil {
		argv = s.listerArgv(s.cwd.Dir())
	}
	if err := sidecmd.RunToSink(argv, nil, dataConn); err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	return protocol.WriteAck(s.conn)
}

// handleGET implements GET (§4.5): open the remote path read-only
// relative to the session's cwd, reject non-regular files, stream to
// the data socket, ack.
func (s *session) handleGET(arg string) error {
	return s.sendFile(arg)
}

// handleSHOW implements SHOW (§4.5): identical wire sequence to GET.
func (s *session) handleSHOW(arg string) error {
	return s.sendFile(arg)
}

func (s *session) sendFile(arg string) error {
	dataConn, err := s.takeDataConn()
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	defer dataConn.Close()

	path := s.cwd.Resolve(arg)
	info, statErr := statFollow(path)
	if statErr != nil {
		return protocol.WriteError(s.conn, statErr.Error())
	}
	if !info.Mode().IsRegular() {
		return protocol.WriteError(s.conn, fmt.Sprintf("%s: not a regular file", path))
	}

	f, err := openReadOnly(path)
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	defer f.Close()

	if _, err := lineio.Stream(dataConn, f); err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	return protocol.WriteAck(s.conn)
}

// handlePUT implements PUT (§4.5): open the destination basename for
// exclusive creation relative to the session's cwd; ack once the
// destination is open (*before* reading any payload); stream the data
// socket to the file; there is no second ack.
func (s *session) handlePUT(arg string) error {
	dataConn, err := s.takeDataConn()
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}
	defer dataConn.Close()

	path := s.cwd.Resolve(basename(arg))
	f, err := createExclusive(path)
	if err != nil {
		return protocol.WriteError(s.conn, err.Error())
	}

	if err := protocol.WriteAck(s.conn); err != nil {
		f.Close()
		return err
	}

	_, xferErr := lineio.Stream(f, dataConn)
	if cerr := f.Close(); cerr != nil && xferErr == nil {
		xferErr = cerr
	}
	return xferErr
}

// isTransportFailure reports whether err came from a write to the
// control socket itself, which per §7 ends the session rather than
// just the current command.
func isTransportFailure(err error) bool {
	var transportErr *protocol.TransportError
	return errors.As(err, &transportErr) || errors.Is(err, protocol.ErrEOFResponse)
}
