package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tillberg/mftp/internal/lineio"
)

// MaxLine is the maximum length, in bytes, of a single control or
// response line, matching §3's requirement of an 8 KiB minimum buffer.
const MaxLine = lineio.MaxLine

// ErrEOFResponse is the distinguished EOF response from §3: a read
// that returns zero bytes before any newline. It is always a protocol
// error at whichever peer receives it.
var ErrEOFResponse = errors.New("protocol: EOF response")

// ResponseKind distinguishes acknowledgement from error responses.
type ResponseKind byte

const (
	Ack   ResponseKind = 'A'
	Err   ResponseKind = 'E'
)

// Response is a parsed `A`/`E` line as described in §3 and §4.3.
type Response struct {
	Kind    ResponseKind
	Payload string // the decimal port for an ack-with-port; the reason for an error
}

// IsAck reports whether the response is a plain or port-carrying ack.
func (r Response) IsAck() bool { return r.Kind == Ack }

// Port parses the response payload as the decimal port carried by the
// ack to a DATA command. It returns an error if the response is not an
// ack, or the payload is not a valid port number.
func (r Response) Port() (int, error) {
	if r.Kind != Ack {
		return 0, fmt.Errorf("protocol: cannot read port from error response: %s", r.Payload)
	}
	if r.Payload == "" {
		return 0, fmt.Errorf("protocol: ack missing expected port")
	}
	port, err := strconv.Atoi(r.Payload)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("protocol: invalid port in ack: %q", r.Payload)
	}
	return port, nil
}

// WriteControlMessage writes a control message for kind (and its
// argument, if the kind takes one) to w: the wire code byte, the
// argument bytes if present, and a trailing newline.
func WriteControlMessage(w io.Writer, k Kind, arg string) error {
	code, ok := WireCode(k)
	if !ok {
		return fmt.Errorf("protocol: kind %s has no wire code", k)
	}
	if strings.ContainsRune(arg, '\n') {
		return fmt.Errorf("protocol: argument contains embedded newline")
	}
	return lineio.WriteLine(w, string(code)+arg)
}

// ReadControlMessage reads one line from r and splits it into the kind
// selected by its wire code and the remaining argument bytes. It
// returns ErrEOFResponse on EOF-before-any-byte.
func ReadControlMessage(r io.Reader) (Kind, string, error) {
	line, err := lineio.ReadLine(r, MaxLine)
	if err != nil {
		if err == io.EOF {
			return INVALID, "", ErrEOFResponse
		}
		return INVALID, "", &TransportError{Op: "read control message", Err: err}
	}
	if len(line) == 0 {
		return INVALID, "", &ProtocolError{Op: "read control message", Reason: "empty control line"}
	}

	kind, ok := KindFromWireCode(line[0])
	if !ok {
		return INVALID, string(line[1:]), &ProtocolError{Op: "read control message", Reason: fmt.Sprintf("unrecognized wire code %q", line[0])}
	}
	return kind, string(line[1:]), nil
}

// WriteAck writes a plain `A\n` acknowledgement.
func WriteAck(w io.Writer) error {
	if err := lineio.WriteLine(w, "A"); err != nil {
		return &TransportError{Op: "write ack", Err: err}
	}
	return nil
}

// WriteAckPort writes an `A<port>\n` acknowledgement, the reply to a
// DATA command.
func WriteAckPort(w io.Writer, port int) error {
	if err := lineio.WriteLine(w, "A"+strconv.Itoa(port)); err != nil {
		return &TransportError{Op: "write ack with port", Err: err}
	}
	return nil
}

// WriteError writes an `E<reason>\n` response. reason must not contain
// a newline; any embedded newline is replaced with a space so the
// framing invariant can never be violated by a free-form reason string.
func WriteError(w io.Writer, reason string) error {
	reason = strings.ReplaceAll(reason, "\n", " ")
	if err := lineio.WriteLine(w, "E"+reason); err != nil {
		return &TransportError{Op: "write error response", Err: err}
	}
	return nil
}

// ReadResponse reads one line from r and parses it as an `A`/`E`
// response. It returns ErrEOFResponse on EOF-before-any-byte, which
// per §3/§7 is always a fatal protocol error at the reader.
func ReadResponse(r io.Reader) (Response, error) {
	line, err := lineio.ReadLine(r, MaxLine)
	if err != nil {
		if err == io.EOF {
			return Response{}, ErrEOFResponse
		}
		return Response{}, err
	}
	if len(line) == 0 {
		return Response{}, ErrEOFResponse
	}

	switch line[0] {
	case byte(Ack):
		return Response{Kind: Ack, Payload: string(line[1:])}, nil
	case byte(Err):
		return Response{Kind: Err, Payload: string(line[1:])}, nil
	default:
		return Response{}, &ProtocolError{Op: "read response", Reason: fmt.Sprintf("malformed response %q", line)}
	}
}
