package mftp

import (
	"bufio"
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

// DefaultControlPort is the well-known TCP port the server listens on
// (§6).
const DefaultControlPort = 49999

// Client holds the state of one session: the control connection,
// exclusively owned for the session's lifetime, and the server host so
// data connections can target the same host on the server-issued port.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader

	host string // server_host (§3): retained for data connections
	port int

	logger *logrus.Entry
	line   *liner.State

	pagerArgv    []string
	localLister  func(dir string) []string
	successColor *color.Color
	errorColor   *color.Color
}

// Option configures a Client, following the functional-options pattern
// (see options.go).
type Option func(*Client)

// Dial connects to the mftp server at host on DefaultControlPort (or
// the port set via WithPort) and returns a Client ready for Run.
func Dial(host string, opts ...Option) (*Client, error) {
	c := &Client{
		host:         host,
		logger:       logrus.NewEntry(silentLogger()),
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
	}

	for _, opt := range opts {
		opt(c)
	}

	port := DefaultControlPort
	if c.port != 0 {
		port = c.port
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mftp: failed to connect to %s: %w", addr, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)

	if c.line == nil {
		c.line = liner.NewLiner()
	}

	c.logger.WithField("addr", addr).Debug("connected")

	return c, nil
}

// silentLogger returns a logrus.Logger that stays quiet unless -d
// raises the level, the default for a Client that doesn't set
// WithLogger.
func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// Close releases the control connection and the line editor. It does
// not notify the server; callers that want a graceful shutdown should
// dispatch the EXIT command first (see Run).
func (c *Client) Close() error {
	if c.line != nil {
		c.line.Close()
	}
	return c.conn.Close()
}
