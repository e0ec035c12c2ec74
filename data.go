package mftp

import (
	"fmt"
	"net"

	"github.com/tillberg/mftp/protocol"
)

// openDataConn runs the client side of the handshake in §4.3: send
// `D\n`, read the ack-with-port (or error), then dial the server on
// (server_host, port).
func (c *Client) openDataConn() (net.Conn, error) {
	resp, err := c.sendControl(protocol.DATA, "")
	if err != nil {
		return nil, err
	}
	if !resp.IsAck() {
		return nil, &ServerError{Reason: resp.Payload}
	}

	port, err := resp.Port()
	if err != nil {
		return nil, &protocol.ProtocolError{Op: "parse DATA ack", Reason: err.Error()}
	}

	addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", port))
	dataConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, &protocol.TransportError{Op: "dial data connection", Err: err}
	}

	c.logger.WithField("addr", addr).Debug("data connection established")
	return dataConn, nil
}

// runDataBearing implements §4.4's data-bearing dispatch for the three
// commands that read from the server (RLS, GET, SHOW): open the
// handshake, send the actual command, let body consume the data
// connection, close it, then read the terminal response.
func (c *Client) runDataBearing(kind protocol.Kind, arg string, body func(dataConn net.Conn) error) error {
	dataConn, err := c.openDataConn()
	if err != nil {
		return err
	}

	c.logger.WithField("kind", kind).WithField("arg", arg).Debug("-> control (post-handshake)")
	if err := protocol.WriteControlMessage(c.conn, kind, arg); err != nil {
		dataConn.Close()
		return &protocol.TransportError{Op: fmt.Sprintf("write %s", kind), Err: err}
	}

	bodyErr := body(dataConn)
	if cerr := dataConn.Close(); cerr != nil && bodyErr == nil {
		bodyErr = &protocol.TransportError{Op: "close data connection", Err: cerr}
	}

	termErr := c.readTerminalResponse()

	if bodyErr != nil {
		return bodyErr
	}
	return termErr
}
