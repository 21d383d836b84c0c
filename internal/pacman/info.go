package pacman

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Version returns the "Pacman vX.Y.Z - libalpm vA.B.C" banner of binary.
func Version(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", binary, err)
	}
	v, ok := ParseVersion(out)
	if !ok {
		return "", fmt.Errorf("no version banner in %s --version output", binary)
	}
	return v, nil
}

// ParseVersion extracts the version banner from pacman --version output.
func ParseVersion(out []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		i := strings.Index(line, "Pacman v")
		if i >= 0 && strings.Contains(line, "libalpm v") {
			return strings.TrimSpace(line[i:]), true
		}
	}
	return "", false
}

// CacheSize returns the total size in bytes of the regular files directly
// inside dir.
func CacheSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading package cache: %w", err)
	}
	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// DiskUsage returns used and total bytes of the filesystem holding path.
// A leading "~" is expanded to the user's home directory.
func DiskUsage(path string) (used, total uint64, err error) {
	path = expandTilde(path)
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	frsize := uint64(st.Frsize)
	if frsize == 0 {
		frsize = uint64(st.Bsize)
	}
	total = st.Blocks * frsize
	used = (st.Blocks - st.Bfree) * frsize
	return used, total, nil
}

func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
