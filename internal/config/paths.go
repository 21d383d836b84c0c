package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// UserHome returns the home directory of the invoking user. Under sudo
// this is SUDO_USER's home rather than root's.
func UserHome() (string, error) {
	if name := os.Getenv("SUDO_USER"); name != "" && name != "root" {
		if u, err := user.Lookup(name); err == nil && u.HomeDir != "" {
			return u.HomeDir, nil
		}
		home := filepath.Join("/home", name)
		if info, err := os.Stat(home); err == nil && info.IsDir() {
			return home, nil
		}
	}
	return os.UserHomeDir()
}

func underSudo() bool {
	name := os.Getenv("SUDO_USER")
	return name != "" && name != "root"
}

// ConfigDir returns ~/.config/pacfetch, honouring XDG_CONFIG_HOME when not
// running under sudo.
func ConfigDir() (string, error) {
	if !underSudo() {
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, "pacfetch"), nil
		}
	}
	home, err := UserHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pacfetch"), nil
}

// DefaultCacheDir returns ~/.cache/pacfetch, honouring XDG_CACHE_HOME when
// not running under sudo.
func DefaultCacheDir() (string, error) {
	if !underSudo() {
		if dir, err := os.UserCacheDir(); err == nil {
			return filepath.Join(dir, "pacfetch"), nil
		}
	}
	home, err := UserHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "pacfetch"), nil
}

// LogPath returns the location of pacfetch's own log file.
func LogPath() (string, error) {
	dir, err := DefaultCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pacfetch.log"), nil
}

// expandTilde expands ~ or ~/ at the start of a path to the user's home directory
func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := UserHome()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
