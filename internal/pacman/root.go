package pacman

import (
	"errors"
	"os"
)

// ErrNotRoot is returned before any privileged operation is attempted
// without root.
var ErrNotRoot = errors.New("you cannot perform this operation unless you are root")

// IsRoot reports whether the effective user is root.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireRoot returns ErrNotRoot unless running as root.
func RequireRoot() error {
	if !IsRoot() {
		return ErrNotRoot
	}
	return nil
}
