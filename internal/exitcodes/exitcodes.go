// Package exitcodes defines the process exit codes pacfetch returns, so
// that wrappers and update notifiers can tell failure classes apart.
package exitcodes

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/dbcache"
	"github.com/johndauphine/pacfetch/internal/driver"
	"github.com/johndauphine/pacfetch/internal/pacman"
	"github.com/johndauphine/pacfetch/internal/pty"
)

const (
	// Success - operation completed without errors
	Success = 0

	// ConfigError - configuration parsing or invalid flags (non-recoverable)
	ConfigError = 1

	// SpawnError - pacman or fakeroot could not be started (non-recoverable)
	SpawnError = 2

	// StreamError - reading pacman's output or sending input failed
	StreamError = 3

	// AuthError - privileged operation attempted without root
	AuthError = 4

	// Cancelled - user cancelled via SIGINT/SIGTERM (recoverable)
	Cancelled = 5

	// CacheError - the database cache could not be used or refreshed
	CacheError = 6

	// IOError - file I/O errors (recoverable)
	IOError = 7
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// FromError determines the appropriate exit code for an error.
func FromError(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, config.ErrInvalid):
		return ConfigError
	case errors.Is(err, pacman.ErrNotRoot):
		return AuthError
	case errors.Is(err, pty.ErrSpawn):
		return SpawnError
	case errors.Is(err, driver.ErrStream), errors.Is(err, driver.ErrInput):
		return StreamError
	case errors.Is(err, dbcache.ErrCacheIO):
		return CacheError
	case errors.Is(err, context.Canceled):
		return Cancelled
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return IOError
	}

	errStr := strings.ToLower(err.Error())
	if containsAny(errStr, []string{
		"no such file",
		"permission denied",
		"is a directory",
		"not a directory",
	}) {
		return IOError
	}
	if containsAny(errStr, []string{
		"yaml:",
		"toml:",
		"unrecognized flag",
		"flag provided but not defined",
	}) {
		return ConfigError
	}
	if containsAny(errStr, []string{"interrupt", "signal: terminated"}) {
		return Cancelled
	}

	// Anything else is a failed pacman operation
	return StreamError
}

// IsRecoverable returns true if the error is recoverable (safe to retry).
func IsRecoverable(code int) bool {
	switch code {
	case Cancelled, CacheError, IOError:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the exit code.
func Description(code int) string {
	switch code {
	case Success:
		return "success"
	case ConfigError:
		return "configuration error"
	case SpawnError:
		return "could not start pacman"
	case StreamError:
		return "pacman operation failed"
	case AuthError:
		return "root required"
	case Cancelled:
		return "cancelled (recoverable)"
	case CacheError:
		return "database cache error (recoverable)"
	case IOError:
		return "I/O error (recoverable)"
	default:
		return "unknown error"
	}
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
