package server

import (
	"os"
	"path/filepath"
)

// basename strips any directory components from a PUT argument before
// it is resolved against the session's cwd, matching the client's use
// of filepath.Base for GET's local destination.
func basename(arg string) string {
	return filepath.Base(arg)
}

func statFollow(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func openReadOnly(path string) (*os.File, error) {
	return os.Open(path)
}

// createExclusive opens path for exclusive creation, matching PUT's
// resource-error class (§7): an existing destination is a conflict,
// not silently overwritten.
func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
}
