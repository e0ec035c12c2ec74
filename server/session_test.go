package server

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/tillberg/mftp/protocol"
)

// harness runs a session against the server end of a loopback TCP pair
// (net.Pipe cannot model the independent control+data connections the
// DATA handshake requires) and hands the test the client end plus the
// session's virtual cwd.
type harness struct {
	t      *testing.T
	client net.Conn
	dir    string
}

func newHarness(t *testing.T, dir string) *harness {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	serverConn, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	sess, err := newSession(serverConn, dir, logger)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	sess.listerArgv = func(string) []string { return []string{"true"} }

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.serve()
	}()
	t.Cleanup(func() { <-done })

	return &harness{t: t, client: client, dir: dir}
}

// openData plays the client side of the D/A<port> handshake.
func (h *harness) openData() net.Conn {
	h.t.Helper()
	if err := protocol.WriteControlMessage(h.client, protocol.DATA, ""); err != nil {
		h.t.Fatalf("write D: %v", err)
	}
	resp, err := protocol.ReadResponse(h.client)
	if err != nil || !resp.IsAck() {
		h.t.Fatalf("DATA ack: resp=%+v err=%v", resp, err)
	}
	port, err := resp.Port()
	if err != nil {
		h.t.Fatalf("port: %v", err)
	}
	dataConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", itoa(port)))
	if err != nil {
		h.t.Fatalf("dial data: %v", err)
	}
	return dataConn
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestSessionRoundTripGET(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("Y"), 4096)
	if err := os.WriteFile(filepath.Join(dir, "X"), payload, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	h := newHarness(t, dir)
	dataConn := h.openData()

	if err := protocol.WriteControlMessage(h.client, protocol.GET, "X"); err != nil {
		t.Fatalf("write G: %v", err)
	}

	got, err := io.ReadAll(dataConn)
	if err != nil {
		t.Fatalf("read data: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch: got %d bytes", len(got))
	}

	resp, err := protocol.ReadResponse(h.client)
	if err != nil || !resp.IsAck() {
		t.Fatalf("terminal ack: resp=%+v err=%v", resp, err)
	}

	exitClient(t, h.client)
}

func TestSessionPUTExistingDestinationFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Y"), []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	h := newHarness(t, dir)
	dataConn := h.openData()
	defer dataConn.Close()

	if err := protocol.WriteControlMessage(h.client, protocol.PUT, "Y"); err != nil {
		t.Fatalf("write P: %v", err)
	}

	resp, err := protocol.ReadResponse(h.client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.IsAck() {
		t.Fatalf("expected an error response for an existing destination")
	}

	got, err := os.ReadFile(filepath.Join(dir, "Y"))
	if err != nil || string(got) != "existing" {
		t.Fatalf("server file was modified: got=%q err=%v", got, err)
	}

	exitClient(t, h.client)
}

func TestSessionPUTRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	h := newHarness(t, dir)
	dataConn := h.openData()

	if err := protocol.WriteControlMessage(h.client, protocol.PUT, "nested/upload.txt"); err != nil {
		t.Fatalf("write P: %v", err)
	}

	resp, err := protocol.ReadResponse(h.client)
	if err != nil || !resp.IsAck() {
		t.Fatalf("pre-transfer ack: resp=%+v err=%v", resp, err)
	}

	payload := []byte("uploaded contents")
	if _, err := dataConn.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	dataConn.Close()

	got, err := os.ReadFile(filepath.Join(dir, "upload.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch: got %q", got)
	}

	exitClient(t, h.client)
}

func TestSessionRCDToNonexistentPathLeavesErrorAndCwdUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h := newHarness(t, dir)

	if err := protocol.WriteControlMessage(h.client, protocol.RCD, filepath.Join(dir, "nope")); err != nil {
		t.Fatalf("write C: %v", err)
	}
	resp, err := protocol.ReadResponse(h.client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.IsAck() {
		t.Fatalf("expected an error for a nonexistent directory")
	}

	// The cwd is still dir: a relative RCD into its subdirectory succeeds.
	if err := protocol.WriteControlMessage(h.client, protocol.RCD, "sub"); err != nil {
		t.Fatalf("write C: %v", err)
	}
	resp, err = protocol.ReadResponse(h.client)
	if err != nil || !resp.IsAck() {
		t.Fatalf("relative RCD after failed RCD: resp=%+v err=%v", resp, err)
	}

	exitClient(t, h.client)
}

func TestSessionGETOnDirectoryFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	h := newHarness(t, dir)
	dataConn := h.openData()
	defer dataConn.Close()

	if err := protocol.WriteControlMessage(h.client, protocol.GET, "subdir"); err != nil {
		t.Fatalf("write G: %v", err)
	}
	resp, err := protocol.ReadResponse(h.client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.IsAck() {
		t.Fatalf("expected an error for a directory argument")
	}

	exitClient(t, h.client)
}

func TestSessionUnknownWireCodeIsReportedAndSessionContinues(t *testing.T) {
	t.Parallel()
	h := newHarness(t, t.TempDir())

	if _, err := h.client.Write([]byte("Zwhatever\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := protocol.ReadResponse(h.client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.IsAck() {
		t.Fatalf("expected an error response for an unknown wire code")
	}

	// The session must still be alive: a simple remote command works.
	if err := protocol.WriteControlMessage(h.client, protocol.RCD, "."); err != nil {
		t.Fatalf("write C: %v", err)
	}
	resp, err = protocol.ReadResponse(h.client)
	if err != nil || !resp.IsAck() {
		t.Fatalf("RCD after malformed line: resp=%+v err=%v", resp, err)
	}

	exitClient(t, h.client)
}

func TestSessionDataBearingCommandWithoutHandshakeIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t, t.TempDir())

	if err := protocol.WriteControlMessage(h.client, protocol.RLS, ""); err != nil {
		t.Fatalf("write L: %v", err)
	}
	resp, err := protocol.ReadResponse(h.client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.IsAck() {
		t.Fatalf("expected an error for RLS with no data socket open")
	}

	exitClient(t, h.client)
}

func exitClient(t *testing.T, conn net.Conn) {
	t.Helper()
	if err := protocol.WriteControlMessage(conn, protocol.EXIT, ""); err != nil {
		t.Fatalf("write Q: %v", err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil || !resp.IsAck() {
		t.Fatalf("EXIT ack: resp=%+v err=%v", resp, err)
	}
}
