package pacman

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const logTimeLayout = "2006-01-02T15:04:05-0700"

// LastUpgrade returns when the most recent full system upgrade that ran to
// completion was started, according to pacman's log at path. An upgrade
// counts once a "starting full system upgrade" entry is followed by a
// "transaction completed" entry.
func LastUpgrade(path string) (time.Time, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("opening pacman log: %w", err)
	}
	defer f.Close()
	return ScanLastUpgrade(f)
}

// ScanLastUpgrade is LastUpgrade over an open log.
func ScanLastUpgrade(r io.Reader) (time.Time, bool, error) {
	var (
		started bool
		start   time.Time
		last    time.Time
		found   bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.Contains(line, "starting full system upgrade"):
			ts, ok := parseLogTime(line)
			started = ok
			start = ts
		case started && strings.Contains(line, "transaction completed"):
			last = start
			found = true
			started = false
		}
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, false, fmt.Errorf("reading pacman log: %w", err)
	}
	return last, found, nil
}

// parseLogTime reads the "[2024-05-01T10:22:33+0200]" prefix of a log line.
func parseLogTime(line string) (time.Time, bool) {
	if !strings.HasPrefix(line, "[") {
		return time.Time{}, false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return time.Time{}, false
	}
	ts, err := time.Parse(logTimeLayout, line[1:end])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
