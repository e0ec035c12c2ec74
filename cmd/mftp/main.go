// Command mftp is the interactive client described in §6: it dials a
// server's control port and drives the command REPL until EXIT or
// stdin is exhausted.
package main

import (
	"fmt"
	"os"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tillberg/mftp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mftp HOSTNAME",
		Short: "Connect to a mftp server and run the interactive command session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only suppress the usage block for failures that happen
			// after the argv shape itself has already been validated
			// (§6: an invalid argv shape must still print usage).
			cmd.SilenceUsage = true
			return run(args[0], debug)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	return cmd
}

func run(host string, debug bool) error {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	client, err := mftp.Dial(host, mftp.WithLogger(logger), mftp.WithLineEditor(line))
	if err != nil {
		return fmt.Errorf("mftp: dial %s: %w", host, err)
	}
	defer client.Close()

	return client.Run()
}
