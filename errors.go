package mftp

import "fmt"

// ServerError wraps the reason string from an `E` response (§3/§7),
// prefixed so a server-origin failure reads unambiguously to the user.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server error: %s", e.Reason)
}
