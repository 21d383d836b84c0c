// Package alpmdb reads package databases through libalpm.
package alpmdb

import (
	"errors"
	"fmt"

	alpm "github.com/Jguer/go-alpm/v2"

	"github.com/johndauphine/pacfetch/internal/logging"
	"github.com/johndauphine/pacfetch/internal/upgrade"
)

// DB opens libalpm handles rooted at Root for a list of sync repositories.
type DB struct {
	Root  string
	Repos []string
}

// New returns a DB for the standard root and repositories.
func New(repos []string) *DB {
	return &DB{Root: "/", Repos: repos}
}

func (d *DB) handle(dbpath string) (*alpm.Handle, error) {
	h, err := alpm.Initialize(d.Root, dbpath)
	if err != nil {
		return nil, fmt.Errorf("initializing alpm for %s: %w", dbpath, err)
	}
	return h, nil
}

// Open registers the sync databases under dbpath and starts a lock-free
// transaction for simulating an upgrade.
func (d *DB) Open(dbpath string) (upgrade.Session, error) {
	h, err := d.handle(dbpath)
	if err != nil {
		return nil, err
	}
	for _, repo := range d.Repos {
		if _, err := h.RegisterSyncDB(repo, alpm.SigLevel(0)); err != nil {
			logging.Debug("alpm: registering %s: %v", repo, err)
		}
	}
	if err := h.TransInit(alpm.TransFlagNoLock); err != nil {
		h.Release()
		return nil, fmt.Errorf("initializing transaction: %w", err)
	}
	return &session{h: h}, nil
}

type session struct {
	h *alpm.Handle
}

func (s *session) Sysupgrade() ([]upgrade.Change, []upgrade.Removal, error) {
	if err := s.h.SyncSysupgrade(false); err != nil {
		return nil, nil, err
	}

	local, err := s.h.LocalDB()
	if err != nil {
		return nil, nil, fmt.Errorf("opening local database: %w", err)
	}
	installed := make(map[string]int64)
	local.PkgCache().ForEach(func(p alpm.IPackage) error {
		installed[p.Name()] = p.ISize()
		return nil
	})

	var changes []upgrade.Change
	s.h.TransGetAdd().ForEach(func(p alpm.IPackage) error {
		c := upgrade.Change{
			Name:          p.Name(),
			DownloadSize:  p.Size(),
			InstalledSize: p.ISize(),
		}
		if old, ok := installed[p.Name()]; ok {
			c.Replaces = true
			c.OldSize = old
		}
		changes = append(changes, c)
		return nil
	})

	var removals []upgrade.Removal
	s.h.TransGetRemove().ForEach(func(p alpm.IPackage) error {
		removals = append(removals, upgrade.Removal{Name: p.Name(), InstalledSize: p.ISize()})
		return nil
	})
	return changes, removals, nil
}

func (s *session) Release() error {
	return errors.Join(s.h.TransRelease(), s.h.Release())
}

// InstalledCount returns the number of packages in the local database.
func (d *DB) InstalledCount(dbpath string) (int, error) {
	h, err := d.handle(dbpath)
	if err != nil {
		return 0, err
	}
	defer h.Release()

	local, err := h.LocalDB()
	if err != nil {
		return 0, err
	}
	return len(local.PkgCache().Slice()), nil
}

// Orphans counts packages installed as dependencies that nothing requires
// or optionally uses, and their total installed size in bytes.
func (d *DB) Orphans(dbpath string) (int, int64, error) {
	h, err := d.handle(dbpath)
	if err != nil {
		return 0, 0, err
	}
	defer h.Release()

	local, err := h.LocalDB()
	if err != nil {
		return 0, 0, err
	}

	var count int
	var size int64
	local.PkgCache().ForEach(func(p alpm.IPackage) error {
		if p.Reason() == alpm.PkgReasonDepend &&
			len(p.ComputeRequiredBy()) == 0 &&
			len(p.ComputeOptionalFor()) == 0 {
			count++
			size += p.ISize()
		}
		return nil
	})
	return count, size, nil
}
