package dbcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newSystem creates a fake /var/lib/pacman with the given sync databases.
func newSystem(t *testing.T, dbs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sync"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "local"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range dbs {
		if err := os.WriteFile(filepath.Join(dir, "sync", name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func openCache(t *testing.T, system string) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "pacfetch"), system)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func writeDBs(t *testing.T, c *Cache, mtime time.Time) {
	t.Helper()
	for _, name := range Databases {
		path := c.dbFile(name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpen_CreatesLayout(t *testing.T) {
	system := newSystem(t, nil)
	c := openCache(t, system)

	if info, err := os.Stat(filepath.Join(c.DBPath(), "sync")); err != nil || !info.IsDir() {
		t.Fatalf("sync dir missing: %v", err)
	}
	target, err := os.Readlink(filepath.Join(c.DBPath(), "local"))
	if err != nil {
		t.Fatalf("local symlink: %v", err)
	}
	if target != filepath.Join(system, "local") {
		t.Errorf("local -> %s, want %s", target, filepath.Join(system, "local"))
	}

	// Reopening keeps the existing symlink.
	if _, err := Open(c.DBPath(), "/elsewhere"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again, _ := os.Readlink(filepath.Join(c.DBPath(), "local")); again != target {
		t.Errorf("symlink replaced: %s", again)
	}
}

func TestOpen_Unusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(filepath.Join(blocker, "cache"), "/var/lib/pacman")
	if !errors.Is(err, ErrCacheIO) {
		t.Errorf("Open error = %v, want ErrCacheIO", err)
	}
}

func TestIsFresh(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tests := []struct {
		name  string
		ttl   int
		setup func(t *testing.T, c *Cache)
		want  bool
	}{
		{"zero ttl", 0, func(t *testing.T, c *Cache) { writeDBs(t, c, now) }, false},
		{"all recent", 15, func(t *testing.T, c *Cache) { writeDBs(t, c, now.Add(-time.Minute)) }, true},
		{"exactly at ttl", 15, func(t *testing.T, c *Cache) { writeDBs(t, c, now.Add(-15*time.Minute)) }, true},
		{"stale", 15, func(t *testing.T, c *Cache) { writeDBs(t, c, now.Add(-16*time.Minute)) }, false},
		{"empty cache", 15, func(t *testing.T, c *Cache) {}, false},
		{"one missing", 15, func(t *testing.T, c *Cache) {
			writeDBs(t, c, now)
			os.Remove(c.dbFile("multilib"))
		}, false},
		{"one stale", 15, func(t *testing.T, c *Cache) {
			writeDBs(t, c, now)
			old := now.Add(-time.Hour)
			os.Chtimes(c.dbFile("extra"), old, old)
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openCache(t, newSystem(t, nil))
			c.now = func() time.Time { return now }
			tt.setup(t, c)
			if got := c.IsFresh(tt.ttl); got != tt.want {
				t.Errorf("IsFresh(%d) = %v, want %v", tt.ttl, got, tt.want)
			}
		})
	}
}

func TestCopySystemDatabases(t *testing.T) {
	system := newSystem(t, map[string]string{
		"core.db":     "core v2",
		"extra.db":    "extra v2",
		"multilib.db": "multilib v2",
		"core.db.sig": "signature",
	})
	upstream := time.Now().Add(-3 * time.Hour).Truncate(time.Second)
	for _, name := range []string{"core.db", "extra.db", "multilib.db"} {
		os.Chtimes(filepath.Join(system, "sync", name), upstream, upstream)
	}

	c := openCache(t, system)

	// extra.db in the cache is newer than the system copy and must survive.
	newer := time.Now().Add(-time.Minute).Truncate(time.Second)
	os.WriteFile(c.dbFile("extra"), []byte("extra v3"), 0o644)
	os.Chtimes(c.dbFile("extra"), newer, newer)

	if err := c.CopySystemDatabases(); err != nil {
		t.Fatalf("CopySystemDatabases: %v", err)
	}

	for name, want := range map[string]string{"core": "core v2", "multilib": "multilib v2", "extra": "extra v3"} {
		data, err := os.ReadFile(c.dbFile(name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(data) != want {
			t.Errorf("%s.db = %q, want %q", name, data, want)
		}
	}

	info, err := os.Stat(c.dbFile("core"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(upstream) {
		t.Errorf("core.db mtime = %v, want source mtime %v", info.ModTime(), upstream)
	}
	if _, err := os.Stat(filepath.Join(c.syncDir(), "core.db.sig")); !os.IsNotExist(err) {
		t.Errorf("non-db file copied: %v", err)
	}
}

func TestCopySystemDatabases_MissingSource(t *testing.T) {
	c := openCache(t, filepath.Join(t.TempDir(), "nothing"))
	if err := c.CopySystemDatabases(); err != nil {
		t.Errorf("CopySystemDatabases with no system dir: %v", err)
	}
}

func TestMarkFresh(t *testing.T) {
	c := openCache(t, newSystem(t, nil))
	writeDBs(t, c, time.Now().Add(-48*time.Hour))
	if c.IsFresh(15) {
		t.Fatal("old cache reported fresh")
	}
	if err := c.MarkFresh(); err != nil {
		t.Fatalf("MarkFresh: %v", err)
	}
	if !c.IsFresh(15) {
		t.Error("cache not fresh after MarkFresh")
	}
}

func TestMarkFresh_MissingDatabase(t *testing.T) {
	c := openCache(t, newSystem(t, nil))
	err := c.MarkFresh()
	if !errors.Is(err, ErrCacheIO) {
		t.Errorf("MarkFresh error = %v, want ErrCacheIO", err)
	}
}
