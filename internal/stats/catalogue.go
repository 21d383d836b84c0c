package stats

import (
	"fmt"
	"strings"
)

// ID identifies one displayable stat.
type ID int

const (
	Title ID = iota
	Installed
	Upgradable
	LastUpdate
	DownloadSize
	InstalledSize
	NetUpgradeSize
	OrphanedPackages
	CacheSize
	MirrorURL
	MirrorHealth
	Disk
)

var catalogue = []struct {
	key   string
	label string
}{
	Title:            {"title", ""},
	Installed:        {"installed", "Installed"},
	Upgradable:       {"upgradable", "Upgradable"},
	LastUpdate:       {"last_update", "Last System Update"},
	DownloadSize:     {"download_size", "Download Size"},
	InstalledSize:    {"installed_size", "Installed Size"},
	NetUpgradeSize:   {"net_upgrade_size", "Net Upgrade Size"},
	OrphanedPackages: {"orphaned_packages", "Orphaned Packages"},
	CacheSize:        {"cache_size", "Package Cache"},
	MirrorURL:        {"mirror_url", "Mirror URL"},
	MirrorHealth:     {"mirror_health", "Mirror Health"},
	Disk:             {"disk", "Disk"},
}

// All lists every stat in machine-output order.
var All = []ID{
	Installed, Upgradable, LastUpdate, DownloadSize, InstalledSize, NetUpgradeSize,
	OrphanedPackages, CacheSize, MirrorURL, MirrorHealth, Disk,
}

// Key is the config and JSON name of the stat.
func (id ID) Key() string {
	if int(id) < 0 || int(id) >= len(catalogue) {
		return "unknown"
	}
	return catalogue[id].key
}

// Label is the human-readable name shown before the value.
func (id ID) Label() string {
	if int(id) < 0 || int(id) >= len(catalogue) {
		return ""
	}
	return catalogue[id].label
}

func (id ID) String() string { return id.Key() }

// Entry is one item of the display list. Text is set only for titles
// written as "title.<text>".
type Entry struct {
	ID   ID
	Text string
}

// Parse resolves a configured stat name. "title" and "title.<text>" both
// yield a Title entry.
func Parse(s string) (Entry, error) {
	s = strings.TrimSpace(s)
	if text, ok := strings.CutPrefix(s, "title."); ok {
		if text == "" {
			return Entry{}, fmt.Errorf("title name cannot be empty")
		}
		return Entry{ID: Title, Text: text}, nil
	}
	for i, c := range catalogue {
		if c.key == s {
			return Entry{ID: ID(i)}, nil
		}
	}
	return Entry{}, fmt.Errorf("unknown stat: %s", s)
}

// ParseList parses names in order, failing on the first unknown one.
func ParseList(names []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := Parse(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func has(entries []Entry, ids ...ID) bool {
	for _, e := range entries {
		for _, id := range ids {
			if e.ID == id {
				return true
			}
		}
	}
	return false
}

// NeedsUpgrade reports whether an upgrade simulation is required.
func NeedsUpgrade(entries []Entry) bool {
	return has(entries, Upgradable, DownloadSize, InstalledSize, NetUpgradeSize)
}

// NeedsOrphans reports whether the orphan scan is required.
func NeedsOrphans(entries []Entry) bool { return has(entries, OrphanedPackages) }

// NeedsMirrorURL reports whether the mirrorlist must be read.
func NeedsMirrorURL(entries []Entry) bool { return has(entries, MirrorURL, MirrorHealth) }

// NeedsMirrorHealth reports whether the mirror must be probed.
func NeedsMirrorHealth(entries []Entry) bool { return has(entries, MirrorHealth) }

// NeedsDisk reports whether filesystem usage is required.
func NeedsDisk(entries []Entry) bool { return has(entries, Disk) }
