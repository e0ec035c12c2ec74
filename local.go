package mftp

import (
	"io"
	"os"
	"os/exec"

	"github.com/tillberg/mftp/internal/sidecmd"
)

// runLocalListing runs the local directory listing side process with
// its stdout piped directly into the pager side process's stdin,
// matching §4.4: "LS runs the platform's directory listing, piped
// through the pager."
func (c *Client) runLocalListing() error {
	listArgv := sidecmd.DirectoryListing("")
	if c.localLister != nil {
		listArgv = c.localLister("")
	}

	listCmd := exec.Command(listArgv[0], listArgv[1:]...)
	pagerCmd := c.newPagerCmd()

	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		return err
	}
	listCmd.Stdout = pipeW
	listCmd.Stderr = os.Stderr
	pagerCmd.Stdin = pipeR
	pagerCmd.Stdout = os.Stdout
	pagerCmd.Stderr = os.Stderr

	if err := pagerCmd.Start(); err != nil {
		pipeR.Close()
		pipeW.Close()
		return err
	}
	if err := listCmd.Start(); err != nil {
		pipeW.Close()
		pipeR.Close()
		pagerCmd.Wait()
		return err
	}

	pipeW.Close() // the writer end belongs to listCmd now
	listErr := listCmd.Wait()
	pipeR.Close()
	pagerErr := pagerCmd.Wait()

	if listErr != nil {
		return listErr
	}
	return pagerErr
}

// pageReader pipes src's bytes through the configured pager. Per §9's
// open question, the full listing/file content is always sent over the
// data socket regardless of how the pager chooses to present it.
func (c *Client) pageReader(src io.Reader) error {
	pagerCmd := c.newPagerCmd()
	pagerCmd.Stdin = src
	pagerCmd.Stdout = os.Stdout
	pagerCmd.Stderr = os.Stderr
	return pagerCmd.Run()
}

func (c *Client) newPagerCmd() *exec.Cmd {
	argv := c.pagerArgv
	if argv == nil {
		argv = sidecmd.Pager()
	}
	return exec.Command(argv[0], argv[1:]...)
}
