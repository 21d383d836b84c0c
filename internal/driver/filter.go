package driver

import (
	"strings"

	"github.com/johndauphine/pacfetch/internal/ansi"
)

// noise lists upgrade output already covered by the stats display.
var noise = []string{
	"Total Download Size:",
	"Total Installed Size:",
	"Net Upgrade Size:",
	"resolving dependencies",
	"looking for conflicting packages",
	":: Starting full system upgrade...",
}

// Keep reports whether an upgrade output line should be shown.
func Keep(line string) bool {
	text := strings.TrimSpace(ansi.Strip(line))
	if text == "" {
		return false
	}
	for _, n := range noise {
		if strings.Contains(text, n) {
			return false
		}
	}
	return true
}

// IsPrompt reports whether an unterminated buffer is pacman waiting for an
// answer: a yes/no question, or a numbered selection under a "::" header.
func IsPrompt(buf string) bool {
	if strings.HasSuffix(buf, "[Y/n] ") || strings.HasSuffix(buf, "[y/N] ") {
		return true
	}
	return strings.Contains(buf, "::") && strings.HasSuffix(buf, "]: ")
}

func isInstallConfirmation(prompt string) bool {
	return strings.Contains(prompt, "Proceed with installation")
}
