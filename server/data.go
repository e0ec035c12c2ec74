package server

import (
	"net"
	"strconv"

	"github.com/tillberg/mftp/protocol"
)

// openDataListener implements the server side of the DATA handshake
// (§4.3 step 2, resolved per §9): bind an ephemeral listener, write the
// chosen port in the ack *before* accepting, then accept exactly one
// peer and close the listener. Writing the port before accept avoids
// the deadlock where the client waits on the ack while the server waits
// on accept.
func (s *session) openDataListener() (net.Conn, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	if err := protocol.WriteAckPort(s.conn, port); err != nil {
		return nil, err
	}

	return ln.Accept()
}
