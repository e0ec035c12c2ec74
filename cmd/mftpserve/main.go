// Command mftpserve is the connection acceptor described in §6: it
// binds the control port and runs one goroutine per accepted
// connection, serving the session engine in package server.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tillberg/mftp/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		debug   bool
		port    int
		backlog int
	)

	cmd := &cobra.Command{
		Use:   "mftpserve",
		Short: "Run a mftp control-port listener and serve sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only suppress the usage block for failures that happen
			// after the argv shape itself has already been validated
			// (§6: an invalid argv shape must still print usage).
			cmd.SilenceUsage = true
			return run(port, backlog, debug)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().IntVar(&port, "port", server.DefaultControlPort, "control port to listen on")
	cmd.Flags().IntVar(&backlog, "backlog", server.DefaultBacklog, "accept backlog hint")
	return cmd
}

func run(port, backlog int, debug bool) error {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	srv := server.New(server.WithLogger(logger), server.WithListenBacklog(backlog))
	addr := net.JoinHostPort("", strconv.Itoa(port))
	return srv.ListenAndServe(addr)
}
