package dbcache

import (
	"fmt"

	"github.com/johndauphine/pacfetch/internal/driver"
	"github.com/johndauphine/pacfetch/internal/logging"
)

// SyncCommand returns the argv refreshing dbpath. Without root the sync
// runs under fakeroot with pacman's filesystem sandbox disabled.
func SyncCommand(pacman, dbpath string, root bool) []string {
	args := []string{pacman, "-Sy", "--dbpath", dbpath, "--logfile", "/dev/null"}
	if root {
		return args
	}
	return append([]string{"fakeroot", "--", pacman, "-Sy", "--disable-sandbox-filesystem"}, args[2:]...)
}

// Syncer refreshes a Cache by running pacman -Sy against it.
type Syncer struct {
	Cache  *Cache
	Pacman string
	Root   bool
	Start  driver.StartFunc
	// Report receives "Syncing databases: ..." messages. May be nil.
	Report func(string)
}

// Refresh copies newer system databases into the cache, syncs it and marks
// it fresh. The cache is left unmarked when the sync fails.
func (s *Syncer) Refresh() error {
	if err := s.Cache.CopySystemDatabases(); err != nil {
		logging.Warn("cache: %v", err)
	}

	start := s.Start
	if start == nil {
		start = driver.StartPTY
	}
	argv := SyncCommand(s.pacman(), s.Cache.DBPath(), s.Root)
	child, err := start(argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("starting database sync: %w", err)
	}
	defer child.Close()

	tracker, err := driver.Headless(child, s.report)
	if err != nil {
		return fmt.Errorf("database sync: %w", err)
	}
	if code := child.Wait(); code != 0 {
		return fmt.Errorf("database sync: %s exited with status %d", argv[0], code)
	}

	if err := s.Cache.MarkFresh(); err != nil {
		return err
	}
	tracker.CompleteAll()
	s.report(tracker.Format())
	return nil
}

func (s *Syncer) pacman() string {
	if s.Pacman == "" {
		return "pacman"
	}
	return s.Pacman
}

func (s *Syncer) report(snapshot string) {
	if s.Report != nil {
		s.Report("Syncing databases: " + snapshot)
	}
}
