//go:build unix

package config

import (
	"fmt"
	"os"
)

// checkFilePermissions returns a warning if the config file is writable by
// group or others. The file names the binary pacfetch runs as root.
func checkFilePermissions(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "" // Can't check, skip warning
	}

	mode := info.Mode().Perm()

	if mode&0o022 != 0 {
		return fmt.Sprintf(
			"WARNING: Config file '%s' has insecure permissions (%04o)\n"+
				"         Other users may be able to change the commands pacfetch runs.\n"+
				"         Run: chmod 644 %s\n\n",
			path, mode, path,
		)
	}
	return ""
}
