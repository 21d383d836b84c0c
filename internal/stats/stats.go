// Package stats gathers the package-manager statistics pacfetch displays
// and formats them for humans and machines.
package stats

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const bytesPerGiB = 1024 * 1024 * 1024

// Stats holds gathered values. Nil fields were not requested or could not
// be determined and are omitted from every output.
type Stats struct {
	Installed          int
	Upgradable         int
	SecondsSinceUpdate *int64
	DownloadMiB        *float64
	InstalledMiB       *float64
	NetUpgradeMiB      *float64
	Orphans            *int
	OrphanMiB          *float64
	CacheMiB           *float64
	MirrorURL          *string
	MirrorAgeHours     *float64
	DiskUsed           *uint64
	DiskTotal          *uint64
	PacmanVersion      string
}

func mib(v *float64) (string, bool) {
	if v == nil {
		return "", false
	}
	return fmt.Sprintf("%.2f MiB", *v), true
}

// Value formats the stat for display. ok is false when there is nothing
// to show.
func (s *Stats) Value(id ID) (string, bool) {
	switch id {
	case Installed:
		return fmt.Sprint(s.Installed), true
	case Upgradable:
		return fmt.Sprint(s.Upgradable), true
	case LastUpdate:
		if s.SecondsSinceUpdate == nil {
			return "", false
		}
		return NormalizeDuration(*s.SecondsSinceUpdate), true
	case DownloadSize:
		return mib(s.DownloadMiB)
	case InstalledSize:
		return mib(s.InstalledMiB)
	case NetUpgradeSize:
		return mib(s.NetUpgradeMiB)
	case OrphanedPackages:
		if s.Orphans == nil {
			return "", false
		}
		if *s.Orphans == 0 {
			return "0", true
		}
		if s.OrphanMiB == nil {
			return fmt.Sprint(*s.Orphans), true
		}
		return fmt.Sprintf("%d (%.2f MiB)", *s.Orphans, *s.OrphanMiB), true
	case CacheSize:
		return mib(s.CacheMiB)
	case MirrorURL:
		if s.MirrorURL == nil {
			return "", false
		}
		return *s.MirrorURL, true
	case MirrorHealth:
		switch {
		case s.MirrorURL == nil:
			return "Err - no mirror found", true
		case s.MirrorAgeHours == nil:
			return "Err - could not check sync status", true
		default:
			return fmt.Sprintf("OK (last sync %.1f hours)", *s.MirrorAgeHours), true
		}
	case Disk:
		if s.DiskUsed == nil || s.DiskTotal == nil {
			return "", false
		}
		used := float64(*s.DiskUsed) / bytesPerGiB
		total := float64(*s.DiskTotal) / bytesPerGiB
		pct := 0.0
		if *s.DiskTotal > 0 {
			pct = float64(*s.DiskUsed) / float64(*s.DiskTotal) * 100
		}
		return fmt.Sprintf("%.2f GiB / %.2f GiB (%.0f%%)", used, total, pct), true
	}
	return "", false
}

// Map returns every available stat keyed by its config name.
func (s *Stats) Map() map[string]string {
	m := make(map[string]string, len(All))
	for _, id := range All {
		if v, ok := s.Value(id); ok {
			m[id.Key()] = v
		}
	}
	return m
}

// WriteJSON writes Map as indented JSON.
func (s *Stats) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s.Map(), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteYAML writes Map as a YAML mapping.
func (s *Stats) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Map()); err != nil {
		return err
	}
	return enc.Close()
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// NormalizeDuration renders seconds as "N seconds", "N minutes", "N hours"
// or "D days H hours".
func NormalizeDuration(seconds int64) string {
	switch {
	case seconds < 60:
		return plural(seconds, "second")
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	}
	return plural(seconds/86400, "day") + " " + plural(seconds%86400/3600, "hour")
}
