// Package upgrade summarises what a full system upgrade would download
// and how it would change disk usage.
package upgrade

import (
	"fmt"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// BytesPerMiB converts package sizes to the unit shown to the operator.
const BytesPerMiB = 1024 * 1024

// zeroThreshold is the band, in MiB, within which a net size displays as 0.
const zeroThreshold = 0.01

// Change is one package a simulated upgrade would install.
type Change struct {
	Name          string
	DownloadSize  int64
	InstalledSize int64
	// Replaces is set when an older version is installed locally, whose
	// installed size is OldSize.
	Replaces bool
	OldSize  int64
}

// Removal is one package a simulated upgrade would remove.
type Removal struct {
	Name          string
	InstalledSize int64
}

// Session is a prepared upgrade simulation against one dbpath.
type Session interface {
	Sysupgrade() ([]Change, []Removal, error)
	// Release frees the transaction and the handle. It must be called
	// exactly once.
	Release() error
}

// Opener starts simulation sessions.
type Opener interface {
	Open(dbpath string) (Session, error)
}

// Stats summarises an upgrade.
type Stats struct {
	Packages     int     `json:"packages" yaml:"packages"`
	DownloadMiB  float64 `json:"download_mib" yaml:"download_mib"`
	InstalledMiB float64 `json:"installed_mib" yaml:"installed_mib"`
	NetMiB       float64 `json:"net_mib" yaml:"net_mib"`
}

// Calculate simulates a full upgrade against dbpath. The session is
// released on every path.
func Calculate(o Opener, dbpath string) (Stats, error) {
	s, err := o.Open(dbpath)
	if err != nil {
		return Stats{}, fmt.Errorf("opening %s: %w", dbpath, err)
	}
	defer func() {
		if err := s.Release(); err != nil {
			logging.Warn("releasing upgrade transaction: %v", err)
		}
	}()

	changes, removals, err := s.Sysupgrade()
	if err != nil {
		return Stats{}, fmt.Errorf("simulating upgrade: %w", err)
	}
	return Summarize(changes, removals), nil
}

// Summarize totals sizes. The net size is new installed sizes minus the
// sizes of replaced and removed packages.
func Summarize(changes []Change, removals []Removal) Stats {
	var download, installed, net int64
	for _, c := range changes {
		download += c.DownloadSize
		installed += c.InstalledSize
		net += c.InstalledSize
		if c.Replaces {
			net -= c.OldSize
		}
	}
	for _, r := range removals {
		net -= r.InstalledSize
	}

	return Stats{
		Packages:     len(changes),
		DownloadMiB:  float64(download) / BytesPerMiB,
		InstalledMiB: float64(installed) / BytesPerMiB,
		NetMiB:       NormalizeNet(float64(net) / BytesPerMiB),
	}
}

// NormalizeNet returns 0 for values strictly within ±0.01 so that tiny
// negative results do not display as "-0.00".
func NormalizeNet(mib float64) float64 {
	if mib > -zeroThreshold && mib < zeroThreshold {
		return 0
	}
	return mib
}
