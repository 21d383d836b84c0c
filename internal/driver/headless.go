package driver

import (
	"github.com/johndauphine/pacfetch/internal/logging"
	"github.com/johndauphine/pacfetch/internal/progress"
)

// Headless drives a database-only sync that is not expected to prompt.
// Every change in progress is passed to report, which may be nil.
//
// A nil error means the output was consumed to the end; the caller still
// decides success from the child's exit status.
func Headless(p Process, report func(string)) (*progress.SyncTracker, error) {
	tracker := progress.NewSyncTracker()
	lines := NewLineAssembler(CRBreak)
	var dec decoder

	last := tracker.Format()
	if report != nil {
		report(last)
	}
	apply := func(line string) {
		if line == "" {
			return
		}
		logging.Debug("sync: %s", line)
		tracker.UpdateFromLine(line)
		if snap := tracker.Format(); snap != last {
			last = snap
			if report != nil {
				report(snap)
			}
		}
	}

	err := pump(p, func(chunk []byte) error {
		dec.each(chunk, func(r rune, _ []byte) bool {
			if line, ok := lines.Feed(r); ok {
				apply(line)
			}
			return true
		})
		return nil
	})
	if err != nil {
		return tracker, err
	}

	if tail := dec.flush(); tail != "" {
		for _, r := range tail {
			lines.Feed(r)
		}
	}
	if line, ok := lines.Flush(); ok {
		apply(line)
	}
	return tracker, nil
}
