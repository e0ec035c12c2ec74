package server

import "github.com/sirupsen/logrus"

// Option configures a Server, following the functional-options pattern
// used throughout this module's client and server packages.
type Option func(*Server)

// WithLogger sets the logger used for session and acceptor events. If
// not given, a default logrus.Logger at info level is used.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithListenBacklog sets the accept backlog hint B (§4.6, default 4).
// Go's net package does not expose a true listen(2) backlog to
// callers, so this is only recorded on the Server for parity with the
// reference CLI surface; nothing else reads it.
func WithListenBacklog(n int) Option {
	return func(s *Server) {
		s.backlog = n
	}
}

// WithStartDir sets the directory each new session's virtual cwd is
// seeded from. Defaults to the server process's working directory at
// the time New is called.
func WithStartDir(dir string) Option {
	return func(s *Server) {
		s.startDir = dir
	}
}

// WithDirectoryLister overrides the side process used to produce
// RLS's directory listing, for testing without depending on the
// platform's "ls".
func WithDirectoryLister(f func(dir string) []string) Option {
	return func(s *Server) {
		s.listerArgv = f
	}
}
