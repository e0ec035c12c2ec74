package mftp

import (
	"fmt"

	"github.com/tillberg/mftp/protocol"
)

// sendControl writes a control message for kind/arg and reads back the
// single response line, logging both. This is the primitive every
// remote command (simple or data-bearing) builds on.
func (c *Client) sendControl(kind protocol.Kind, arg string) (protocol.Response, error) {
	c.logger.WithField("kind", kind).WithField("arg", arg).Debug("-> control")

	if err := protocol.WriteControlMessage(c.conn, kind, arg); err != nil {
		return protocol.Response{}, &protocol.TransportError{Op: fmt.Sprintf("write %s", kind), Err: err}
	}

	resp, err := protocol.ReadResponse(c.reader)
	if err != nil {
		return protocol.Response{}, &protocol.TransportError{Op: fmt.Sprintf("read response to %s", kind), Err: err}
	}

	c.logger.WithField("kind", resp.Kind).WithField("payload", resp.Payload).Debug("<- response")
	return resp, nil
}

// runSimpleRemote implements the "simple remote kinds" branch of §4.4:
// send one control message, read one response, surface errors.
func (c *Client) runSimpleRemote(kind protocol.Kind, arg string) error {
	resp, err := c.sendControl(kind, arg)
	if err != nil {
		return err
	}
	if !resp.IsAck() {
		return &ServerError{Reason: resp.Payload}
	}
	return nil
}

// readTerminalResponse reads the ack/error that follows a data-bearing
// command's transfer, per §4.3.
func (c *Client) readTerminalResponse() error {
	resp, err := protocol.ReadResponse(c.reader)
	if err != nil {
		return &protocol.TransportError{Op: "read terminal response", Err: err}
	}
	c.logger.WithField("kind", resp.Kind).WithField("payload", resp.Payload).Debug("<- terminal response")
	if !resp.IsAck() {
		return &ServerError{Reason: resp.Payload}
	}
	return nil
}
