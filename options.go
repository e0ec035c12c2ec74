package mftp

import (
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

// WithPort overrides DefaultControlPort.
func WithPort(port int) Option {
	return func(c *Client) {
		c.port = port
	}
}

// WithLogger enables debug logging using the provided logrus logger.
// Every control message, response, and data-socket lifecycle event is
// logged at debug level.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logrus.NewEntry(logger)
	}
}

// WithLineEditor overrides the liner.State used for the REPL prompt.
// Mainly useful for tests, which want to feed scripted input instead of
// a real terminal.
func WithLineEditor(l *liner.State) Option {
	return func(c *Client) {
		c.line = l
	}
}

// WithPager overrides the argv used to page SHOW and LS output. The
// default is sidecmd.Pager() ($PAGER, falling back to "more").
func WithPager(argv []string) Option {
	return func(c *Client) {
		c.pagerArgv = argv
	}
}

// WithLocalLister overrides the argv used to satisfy the local LS
// command. The default is sidecmd.DirectoryListing().
func WithLocalLister(f func(dir string) []string) Option {
	return func(c *Client) {
		c.localLister = f
	}
}
