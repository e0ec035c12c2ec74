// Package sidecmd models two opaque side-process collaborators: "a
// side process that writes to a byte sink" (the pager) and "a side
// process that writes a directory listing to a byte sink" (ls -l).
// Both are expressed as one operation: run a command, connect its
// stdout to a sink, and report whether the plumbing succeeded. The
// command's exit status is never inspected for ack/error decisions —
// only whether it could be started and streamed.
package sidecmd

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

// RunToSink runs argv[0] with argv[1:] as arguments, connecting its
// standard output to sink and its standard input to stdin (nil is
// treated as no input). It returns once the command has exited. The
// returned error is non-nil only if the process could not be started or
// the plumbing itself failed (e.g. sink write error); a non-zero exit
// status from argv is not itself reported as an error, matching §9's
// "exit status is not propagated into the protocol ack." cmd.Wait's
// *exec.ExitError is therefore deliberately discarded: a *exec.ExitError
// means the process ran and exited (however it exited), which is a
// launch/stream-plumbing success by this function's contract.
func RunToSink(argv []string, stdin io.Reader, sink io.Writer) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = sink
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	var exitErr *exec.ExitError
	if err := cmd.Wait(); err != nil && !errors.As(err, &exitErr) {
		return err
	}
	return nil
}

// Pager returns the argv for the user's configured pager: $PAGER if
// set, otherwise "more", matching the classic FTP client's default
// fallback-to-a-well-known-pager pattern.
func Pager() []string {
	if p := os.Getenv("PAGER"); p != "" {
		return []string{p}
	}
	return []string{"more"}
}

// DirectoryListing returns the argv for a standard, portable long-form
// directory listing of dir (or the current directory if dir is empty).
func DirectoryListing(dir string) []string {
	if dir == "" {
		return []string{"ls", "-l"}
	}
	return []string{"ls", "-l", dir}
}
