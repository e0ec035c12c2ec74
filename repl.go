package mftp

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tillberg/mftp/protocol"
)

const prompt = "mftp$ "

// Run is the REPL driver described in §4.4. It reads command lines
// until stdin is exhausted or an EXIT succeeds, dispatching each to
// local execution, a simple remote round trip, or a data-bearing
// protocol sequence.
func (c *Client) Run() error {
	for {
		line, err := c.line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// EOF on stdin: exit the session without notifying the
				// server (§4.4 step 2); closing the control socket
				// suffices.
				return nil
			}
			return fmt.Errorf("mftp: failed to read input: %w", err)
		}

		c.line.AppendHistory(line)

		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := protocol.Parse(line)
		if err != nil {
			fmt.Println("Unrecognized command:", err)
			continue
		}

		if cmd.Kind == protocol.EXIT {
			if err := c.dispatchExit(); err == nil || isFatal(err) {
				return err
			}
			continue
		}

		c.announce(cmd)
		err = c.dispatch(cmd)
		c.report(err)

		if err != nil && isFatal(err) {
			return err
		}
	}
}

func (c *Client) announce(cmd protocol.Command) {
	if cmd.Argument == "" {
		fmt.Printf("Running %q\n", cmd.Kind.String())
		return
	}
	fmt.Printf("Running %q with argument %s\n", cmd.Kind.String(), cmd.Argument)
}

func (c *Client) report(err error) {
	if err == nil {
		c.successColor.Println("Command finished successfully (status = 0)")
		return
	}
	c.errorColor.Printf("Command finished unsuccessfully (status = 1): %v\n", err)
}

// dispatch implements §4.4 step 4: local kinds execute locally, simple
// remote kinds do one round trip, data-bearing kinds run their full
// protocol sequence.
func (c *Client) dispatch(cmd protocol.Command) error {
	switch cmd.Kind {
	case protocol.CD:
		return runCD(cmd.Argument)
	case protocol.LS:
		return c.runLS()
	case protocol.RCD:
		return c.runSimpleRemote(protocol.RCD, cmd.Argument)
	case protocol.RLS:
		return c.runRLS()
	case protocol.GET:
		return c.runGET(cmd.Argument)
	case protocol.SHOW:
		return c.runSHOW(cmd.Argument)
	case protocol.PUT:
		return c.runPUT(cmd.Argument)
	default:
		return fmt.Errorf("mftp: no dispatcher for %s", cmd.Kind)
	}
}

// dispatchExit implements the EXIT branch of §4.4/§4.3: send `Q\n`,
// expect `A\n`, close the control socket, terminate the client.
func (c *Client) dispatchExit() error {
	cmd := protocol.Command{Kind: protocol.EXIT}
	c.announce(cmd)
	err := c.runSimpleRemote(protocol.EXIT, "")
	c.report(err)
	return err
}

// isFatal reports whether err should end the session, per §4.4's
// cancellation rule: a transport failure aborts the whole client, while
// a protocol/server-origin error aborts only the current command.
func isFatal(err error) bool {
	var transportErr *protocol.TransportError
	return errors.As(err, &transportErr) || errors.Is(err, protocol.ErrEOFResponse)
}
