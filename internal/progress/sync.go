package progress

import (
	"strconv"
	"strings"

	"github.com/johndauphine/pacfetch/internal/ansi"
)

// Databases are the sync targets tracked during a database refresh, in
// display order.
var Databases = []string{"core", "extra", "multilib"}

// SyncState is the progress of a single database download.
type SyncState struct {
	Percent  uint8
	Complete bool
}

func (s SyncState) String() string {
	if s.Complete {
		return "✓"
	}
	return strconv.Itoa(int(s.Percent)) + "%"
}

// SyncTracker folds pacman -Sy output into per-database progress.
type SyncTracker struct {
	states map[string]SyncState
}

// NewSyncTracker returns a tracker with every database at 0%.
func NewSyncTracker() *SyncTracker {
	t := &SyncTracker{states: make(map[string]SyncState, len(Databases))}
	for _, name := range Databases {
		t.states[name] = SyncState{}
	}
	return t
}

// UpdateFromLine applies one line of output. Lines that name an unknown
// database or carry no readable percentage are ignored.
func (t *SyncTracker) UpdateFromLine(line string) {
	text := strings.TrimSpace(ansi.Strip(line))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	if strings.Contains(text, "is up to date") {
		t.set(fields[0], SyncState{Complete: true})
		return
	}

	if len(fields) < 2 {
		return
	}
	last := fields[len(fields)-1]
	if !strings.HasSuffix(last, "%") {
		return
	}
	pct, err := strconv.ParseUint(strings.TrimSuffix(last, "%"), 10, 8)
	if err != nil {
		return
	}
	if pct >= 100 {
		t.set(fields[0], SyncState{Complete: true})
		return
	}
	t.set(fields[0], SyncState{Percent: uint8(pct)})
}

func (t *SyncTracker) set(name string, state SyncState) {
	if _, ok := t.states[name]; ok {
		t.states[name] = state
	}
}

// State returns the current state of a database.
func (t *SyncTracker) State(name string) (SyncState, bool) {
	s, ok := t.states[name]
	return s, ok
}

// CompleteAll marks every database as synced.
func (t *SyncTracker) CompleteAll() {
	for name := range t.states {
		t.states[name] = SyncState{Complete: true}
	}
}

// Format renders the snapshot as "core ✓ | extra 30% | multilib 0%".
func (t *SyncTracker) Format() string {
	parts := make([]string, 0, len(Databases))
	for _, name := range Databases {
		parts = append(parts, name+" "+t.states[name].String())
	}
	return strings.Join(parts, " | ")
}
