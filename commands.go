package mftp

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/tillberg/mftp/internal/lineio"
	"github.com/tillberg/mftp/protocol"
)

// runCD implements the local CD command: change the process's working
// directory.
func runCD(arg string) error {
	if err := os.Chdir(arg); err != nil {
		return err
	}
	return nil
}

// runLS implements the local LS command: run the platform's directory
// listing through the configured pager.
func (c *Client) runLS() error {
	return c.runLocalListing()
}

// runRLS implements RLS (§4.3): handshake, `L\n`, stream the server's
// listing through the configured pager.
func (c *Client) runRLS() error {
	return c.runDataBearing(protocol.RLS, "", func(dataConn net.Conn) error {
		return c.pageReader(dataConn)
	})
}

// runGET implements GET (§4.3): handshake, `G<path>\n`, write the
// streamed bytes to the basename of path in the current directory.
func (c *Client) runGET(remotePath string) error {
	name := filepath.Base(remotePath)
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return fmt.Errorf("cannot create local file %q: %w", name, err)
	}
	defer f.Close()

	return c.runDataBearing(protocol.GET, remotePath, func(dataConn net.Conn) error {
		_, err := lineio.Stream(f, dataConn)
		return err
	})
}

// runSHOW implements SHOW (§4.3): identical to GET's protocol sequence,
// but the payload is piped to the pager instead of a file.
func (c *Client) runSHOW(remotePath string) error {
	return c.runDataBearing(protocol.SHOW, remotePath, func(dataConn net.Conn) error {
		return c.pageReader(dataConn)
	})
}

// runPUT implements PUT (§4.3). The local readable-regular-file
// precheck happens before any control or data traffic, per §4.4's
// cancellation rule ("A precheck failure ... produces a local error and
// no control or data traffic").
func (c *Client) runPUT(localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("cannot read local file %q: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat local file %q: %w", localPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", localPath)
	}

	dataConn, err := c.openDataConn()
	if err != nil {
		return err
	}

	c.logger.WithField("arg", localPath).Debug("-> control (post-handshake) P")
	if err := protocol.WriteControlMessage(c.conn, protocol.PUT, localPath); err != nil {
		dataConn.Close()
		return &protocol.TransportError{Op: "write P", Err: err}
	}

	// PUT's asymmetry (§4.3): the server acks *before* the payload
	// transfer, once it has opened the destination for writing.
	resp, err := protocol.ReadResponse(c.reader)
	if err != nil {
		dataConn.Close()
		return &protocol.TransportError{Op: "read pre-transfer ack for P", Err: err}
	}
	if !resp.IsAck() {
		dataConn.Close()
		return &ServerError{Reason: resp.Payload}
	}

	_, xferErr := lineio.Stream(dataConn, f)
	if cerr := dataConn.Close(); cerr != nil && xferErr == nil {
		xferErr = &protocol.TransportError{Op: "close data connection", Err: cerr}
	}
	if xferErr != nil {
		return xferErr
	}

	return nil
}

