package stats

import (
	"bytes"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func ptr[T any](v T) *T { return &v }

func TestValue(t *testing.T) {
	full := &Stats{
		Installed:          1234,
		Upgradable:         5,
		SecondsSinceUpdate: ptr(int64(90061)),
		DownloadMiB:        ptr(12.346),
		InstalledMiB:       ptr(40.0),
		NetUpgradeMiB:      ptr(-1.5),
		Orphans:            ptr(3),
		OrphanMiB:          ptr(7.25),
		CacheMiB:           ptr(1024.0),
		MirrorURL:          ptr("https://mirror.example/archlinux/core/os/x86_64"),
		MirrorAgeHours:     ptr(2.26),
		DiskUsed:           ptr(uint64(25 * bytesPerGiB)),
		DiskTotal:          ptr(uint64(100 * bytesPerGiB)),
	}

	tests := []struct {
		id   ID
		s    *Stats
		want string
		ok   bool
	}{
		{Installed, full, "1234", true},
		{Upgradable, full, "5", true},
		{LastUpdate, full, "1 day 1 hour", true},
		{DownloadSize, full, "12.35 MiB", true},
		{InstalledSize, full, "40.00 MiB", true},
		{NetUpgradeSize, full, "-1.50 MiB", true},
		{OrphanedPackages, full, "3 (7.25 MiB)", true},
		{OrphanedPackages, &Stats{Orphans: ptr(0), OrphanMiB: ptr(0.0)}, "0", true},
		{OrphanedPackages, &Stats{Orphans: ptr(2)}, "2", true},
		{CacheSize, full, "1024.00 MiB", true},
		{MirrorURL, full, "https://mirror.example/archlinux/core/os/x86_64", true},
		{MirrorHealth, full, "OK (last sync 2.3 hours)", true},
		{MirrorHealth, &Stats{MirrorURL: ptr("x")}, "Err - could not check sync status", true},
		{MirrorHealth, &Stats{}, "Err - no mirror found", true},
		{Disk, full, "25.00 GiB / 100.00 GiB (25%)", true},
		{Disk, &Stats{DiskUsed: ptr(uint64(0)), DiskTotal: ptr(uint64(0))}, "0.00 GiB / 0.00 GiB (0%)", true},
		{Installed, &Stats{}, "0", true},
		{LastUpdate, &Stats{}, "", false},
		{DownloadSize, &Stats{}, "", false},
		{MirrorURL, &Stats{}, "", false},
		{Disk, &Stats{}, "", false},
		{Title, full, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id.Key(), func(t *testing.T) {
			got, ok := tt.s.Value(tt.id)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Value(%s) = %q, %v; want %q, %v", tt.id, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	s := &Stats{Installed: 1234, Upgradable: 5}
	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["installed"] != "1234" || got["upgradable"] != "5" {
		t.Errorf("got %v", got)
	}
	if _, ok := got["download_size"]; ok {
		t.Error("missing values must be omitted")
	}
	if _, ok := got["title"]; ok {
		t.Error("title must not be encoded")
	}
	if got["mirror_health"] != "Err - no mirror found" {
		t.Errorf("mirror_health = %q", got["mirror_health"])
	}
}

func TestWriteYAML(t *testing.T) {
	s := &Stats{Installed: 7, CacheMiB: ptr(1.5)}
	var buf bytes.Buffer
	if err := s.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}

	var got map[string]string
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["installed"] != "7" || got["cache_size"] != "1.50 MiB" {
		t.Errorf("got %v", got)
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0 seconds"},
		{1, "1 second"},
		{59, "59 seconds"},
		{60, "1 minute"},
		{150, "2 minutes"},
		{3600, "1 hour"},
		{7200, "2 hours"},
		{86399, "23 hours"},
		{86400, "1 day 0 hours"},
		{90000, "1 day 1 hour"},
		{3*86400 + 5*3600, "3 days 5 hours"},
	}

	for _, tt := range tests {
		if got := NormalizeDuration(tt.seconds); got != tt.want {
			t.Errorf("NormalizeDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
