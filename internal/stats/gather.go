package stats

import (
	"context"
	"errors"
	"time"

	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/dbcache"
	"github.com/johndauphine/pacfetch/internal/logging"
	"github.com/johndauphine/pacfetch/internal/mirror"
	"github.com/johndauphine/pacfetch/internal/pacman"
	"github.com/johndauphine/pacfetch/internal/upgrade"
)

// PackageDB answers questions about installed and available packages.
type PackageDB interface {
	upgrade.Opener
	InstalledCount(dbpath string) (int, error)
	Orphans(dbpath string) (count int, size int64, err error)
}

// Prober checks a mirror's freshness in the background.
type Prober interface {
	Probe(ctx context.Context, baseURL string) <-chan mirror.Result
}

// SyncFunc prepares an up-to-date dbpath for the upgrade simulation,
// publishing progress through report.
type SyncFunc func(report func(string)) (dbpath string, err error)

// Gatherer collects the requested stats. Each stat is computed only when
// some entry needs it.
type Gatherer struct {
	Config *config.Config
	DB     PackageDB
	Mirror Prober
	// Sync, when set, supplies a freshly synced dbpath. Otherwise the
	// system dbpath is used as is.
	Sync SyncFunc
	// Report receives spinner messages. May be nil.
	Report func(string)

	now func() time.Time
}

func (g *Gatherer) report(msg string) {
	if g.Report != nil {
		g.Report(msg)
	}
}

func (g *Gatherer) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

// Gather computes the stats entries need. Individual failures are logged
// and leave the corresponding value unset.
func (g *Gatherer) Gather(ctx context.Context, entries []Entry) *Stats {
	cfg := g.Config
	s := &Stats{}
	start := time.Now()

	if NeedsUpgrade(entries) {
		t := time.Now()
		g.gatherUpgrade(s)
		logging.Debug("upgrade sizes + count: %v", time.Since(t))
	} else {
		logging.Debug("upgrade sizes: SKIP")
	}

	if NeedsOrphans(entries) {
		count, size, err := g.DB.Orphans(cfg.Pacman.DBPath)
		if err != nil {
			logging.Warn("orphaned packages: %v", err)
		} else {
			sizeMiB := float64(size) / upgrade.BytesPerMiB
			s.Orphans, s.OrphanMiB = &count, &sizeMiB
		}
	}

	var probe <-chan mirror.Result
	if NeedsMirrorURL(entries) {
		if url, ok := mirror.FirstServer(cfg.Mirror.Mirrorlist); ok {
			s.MirrorURL = &url
			if NeedsMirrorHealth(entries) && g.Mirror != nil {
				probe = g.Mirror.Probe(ctx, url)
			}
		} else {
			logging.Debug("no Server entry in %s", cfg.Mirror.Mirrorlist)
		}
	}

	if has(entries, Installed) {
		n, err := g.DB.InstalledCount(cfg.Pacman.DBPath)
		if err != nil {
			logging.Warn("installed count: %v", err)
		}
		s.Installed = n
	}

	if has(entries, LastUpdate) {
		when, ok, err := pacman.LastUpgrade(cfg.Pacman.LogFile)
		switch {
		case err != nil:
			logging.Warn("last update: %v", err)
		case ok:
			secs := int64(g.clock().Sub(when) / time.Second)
			if secs < 0 {
				secs = 0
			}
			s.SecondsSinceUpdate = &secs
		}
	}

	if has(entries, CacheSize) {
		size, err := pacman.CacheSize(cfg.Pacman.PkgCache)
		if err != nil {
			logging.Warn("package cache: %v", err)
		} else {
			sizeMiB := float64(size) / upgrade.BytesPerMiB
			s.CacheMiB = &sizeMiB
		}
	}

	if NeedsDisk(entries) {
		used, total, err := pacman.DiskUsage(cfg.Disk.Path)
		if err != nil {
			logging.Warn("disk usage: %v", err)
		} else {
			s.DiskUsed, s.DiskTotal = &used, &total
		}
	}

	if has(entries, Title) {
		if v, err := pacman.Version(ctx, cfg.Pacman.Binary); err != nil {
			logging.Debug("pacman version: %v", err)
		} else {
			s.PacmanVersion = v
		}
	}

	if probe != nil {
		g.report("Checking mirror last sync")
		select {
		case r := <-probe:
			if r.OK {
				age := r.AgeHours
				s.MirrorAgeHours = &age
			}
		case <-ctx.Done():
			logging.Debug("mirror probe abandoned: %v", ctx.Err())
		}
	}

	logging.Debug("TOTAL: %v", time.Since(start))
	return s
}

func (g *Gatherer) gatherUpgrade(s *Stats) {
	dbpath, ok := g.upgradeDBPath()
	if !ok {
		return
	}
	u, err := upgrade.Calculate(g.DB, dbpath)
	if err != nil {
		logging.Warn("upgrade simulation: %v", err)
		return
	}
	s.Upgradable = u.Packages
	s.DownloadMiB = &u.DownloadMiB
	s.InstalledMiB = &u.InstalledMiB
	s.NetUpgradeMiB = &u.NetMiB
}

func (g *Gatherer) upgradeDBPath() (string, bool) {
	system := g.Config.Pacman.DBPath
	if g.Sync == nil {
		return system, true
	}
	dbpath, err := g.Sync(g.report)
	switch {
	case err == nil:
		g.report("Gathering stats")
		return dbpath, true
	case errors.Is(err, dbcache.ErrCacheIO):
		logging.Warn("%v; using %s", err, system)
		return system, true
	default:
		logging.Warn("database sync failed or was interrupted: %v", err)
		return "", false
	}
}

// CacheSync keeps a private copy of the sync databases fresh so stats can
// be computed without root.
type CacheSync struct {
	Dir        string
	SystemDir  string
	TTLMinutes int
	// Syncer carries the pacman binary, root flag and process starter.
	// Cache and Report are filled in per call.
	Syncer dbcache.Syncer
	// Record wraps the sync round, e.g. to log it in history. May be nil.
	Record func(fn func() error) error
}

// DBPath implements SyncFunc.
func (c *CacheSync) DBPath(report func(string)) (string, error) {
	cache, err := dbcache.Open(c.Dir, c.SystemDir)
	if err != nil {
		return "", err
	}
	if cache.IsFresh(c.TTLMinutes) {
		logging.Debug("database sync: SKIP (cache fresh, TTL %dmin)", c.TTLMinutes)
		if report != nil {
			report("Using cached databases")
		}
		return cache.DBPath(), nil
	}

	s := c.Syncer
	s.Cache = cache
	s.Report = report
	t := time.Now()
	if c.Record != nil {
		err = c.Record(s.Refresh)
	} else {
		err = s.Refresh()
	}
	if err != nil {
		return "", err
	}
	logging.Debug("database sync: %v", time.Since(t))
	return cache.DBPath(), nil
}
