// Package dbcache keeps a private copy of pacman's sync databases so that
// upgrade information can be refreshed without touching the system
// databases or holding their lock.
package dbcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// ErrCacheIO reports that the cache directory cannot be used.
var ErrCacheIO = errors.New("database cache unavailable")

// Databases are the sync databases whose age decides freshness.
var Databases = []string{"core", "extra", "multilib"}

// Cache is a pacman dbpath under the user's cache directory. Its sync/
// directory holds copies of the system databases and its local entry is
// a symlink to the system's local database.
type Cache struct {
	dir       string
	systemDir string
	now       func() time.Time
}

// Open prepares dir as a dbpath mirroring systemDir (usually
// /var/lib/pacman), creating dir/sync and the local symlink if needed.
func Open(dir, systemDir string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "sync"), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheIO, err)
	}

	link := filepath.Join(dir, "local")
	if _, err := os.Lstat(link); os.IsNotExist(err) {
		if err := os.Symlink(filepath.Join(systemDir, "local"), link); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheIO, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheIO, err)
	}

	return &Cache{dir: dir, systemDir: systemDir, now: time.Now}, nil
}

// DBPath is the value to pass to pacman --dbpath.
func (c *Cache) DBPath() string {
	return c.dir
}

func (c *Cache) syncDir() string {
	return filepath.Join(c.dir, "sync")
}

func (c *Cache) dbFile(name string) string {
	return filepath.Join(c.syncDir(), name+".db")
}

// IsFresh reports whether every required database exists and was modified
// within the last ttlMinutes. A TTL of zero is never fresh.
func (c *Cache) IsFresh(ttlMinutes int) bool {
	if ttlMinutes <= 0 {
		return false
	}
	limit := time.Duration(ttlMinutes) * time.Minute
	now := c.now()

	for _, name := range Databases {
		info, err := os.Stat(c.dbFile(name))
		if err != nil {
			logging.Debug("cache: %s.db not usable: %v", name, err)
			return false
		}
		if age := now.Sub(info.ModTime()); age > limit {
			logging.Debug("cache: %s.db is %s old (ttl %s)", name, age.Round(time.Second), limit)
			return false
		}
	}
	return true
}

// CopySystemDatabases copies every *.db from the system sync directory
// whose cached copy is missing or older. Copies keep the source's
// modification time. A missing system directory is not an error.
func (c *Cache) CopySystemDatabases() error {
	srcDir := filepath.Join(c.systemDir, "sync")
	matches, err := filepath.Glob(filepath.Join(srcDir, "*.db"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}

	var errs []error
	for _, src := range matches {
		dst := filepath.Join(c.syncDir(), filepath.Base(src))
		copied, err := copyIfNewer(src, dst)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if copied {
			logging.Debug("cache: copied %s", filepath.Base(src))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrCacheIO, errors.Join(errs...))
	}
	return nil
}

func copyIfNewer(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil || !srcInfo.Mode().IsRegular() {
		return false, nil
	}
	if dstInfo, err := os.Stat(dst); err == nil && !srcInfo.ModTime().After(dstInfo.ModTime()) {
		return false, nil
	}

	if err := copyFile(src, dst); err != nil {
		return false, fmt.Errorf("copying %s: %w", src, err)
	}
	if err := setModTime(dst, srcInfo.ModTime()); err != nil {
		return true, fmt.Errorf("setting mtime of %s: %w", dst, err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// setModTime changes only the modification time of path.
func setModTime(path string, mtime time.Time) error {
	ts := []unix.Timespec{
		{Sec: 0, Nsec: unix.UTIME_OMIT},
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, 0)
}

// MarkFresh stamps the required databases with the current time. It is
// called after a successful sync so the cache stays valid for a full TTL.
func (c *Cache) MarkFresh() error {
	now := c.now()
	var errs []error
	for _, name := range Databases {
		if err := setModTime(c.dbFile(name), now); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrCacheIO, errors.Join(errs...))
	}
	return nil
}
