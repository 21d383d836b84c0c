// Package ansi removes terminal control sequences from text and measures
// the width the remaining text occupies on screen.
package ansi

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	esc = '\x1b'
	bel = '\a'
)

// Strip returns s with escape sequences removed: CSI (ESC [ ... final),
// string controls such as OSC (ESC ] ... BEL | ESC \) and DCS, and plain
// escapes with optional intermediates (ESC ( B). All other bytes are copied
// through unchanged, invalid UTF-8 included. A sequence left unterminated at
// the end of s is dropped.
func Strip(s string) string {
	if strings.IndexByte(s, esc) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != esc {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			break
		}
		i++
		switch s[i] {
		case '[':
			i = skipCSI(s, i+1)
		case ']', 'P', 'X', '^', '_':
			i = skipString(s, i+1)
		default:
			i = skipEscape(s, i)
		}
	}
	return b.String()
}

// skipCSI returns the index of the final byte of a CSI sequence whose
// parameters start at i, or the last index when the sequence never ends.
func skipCSI(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] >= '@' && s[i] <= '~' {
			return i
		}
	}
	return len(s) - 1
}

// skipString consumes a control string up to BEL or ST.
func skipString(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] == bel {
			return i
		}
		if s[i] == esc && i+1 < len(s) && s[i+1] == '\\' {
			return i + 1
		}
	}
	return len(s) - 1
}

// skipEscape consumes intermediate bytes (0x20-0x2F) starting at i and the
// final byte after them. A control byte in final position ends the sequence
// without being consumed.
func skipEscape(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] < 0x20 {
			return i - 1
		}
		if s[i] > 0x2f {
			return i
		}
	}
	return len(s) - 1
}

// Width reports the number of terminal cells s occupies once control
// sequences are removed.
func Width(s string) int {
	return runewidth.StringWidth(Strip(s))
}
