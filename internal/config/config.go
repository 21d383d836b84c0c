package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every configuration parse or validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for pacfetch
type Config struct {
	Cache   CacheConfig   `yaml:"cache" toml:"cache"`
	Disk    DiskConfig    `yaml:"disk" toml:"disk"`
	Display DisplayConfig `yaml:"display" toml:"display"`
	Mirror  MirrorConfig  `yaml:"mirror" toml:"mirror"`
	Pacman  PacmanConfig  `yaml:"pacman" toml:"pacman"`
	History HistoryConfig `yaml:"history" toml:"history"`

	// DefaultArgs are parsed as command-line flags when pacfetch is run
	// without any operation flag.
	DefaultArgs string `yaml:"default_args" toml:"default_args"`
}

// CacheConfig controls the private sync database cache.
type CacheConfig struct {
	TTLMinutes int    `yaml:"ttl_minutes" toml:"ttl_minutes"` // 0 = sync on every run
	Dir        string `yaml:"dir" toml:"dir"`                 // default ~/.cache/pacfetch
}

// DiskConfig selects the filesystem reported by the disk stat.
type DiskConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// DisplayConfig controls which stats are shown and how.
type DisplayConfig struct {
	Stats      []string `yaml:"stats" toml:"stats"`
	Glyph      string   `yaml:"glyph" toml:"glyph"`
	LabelColor string   `yaml:"label_color" toml:"label_color"`
	ValueColor string   `yaml:"value_color" toml:"value_color"`
	TitleColor string   `yaml:"title_color" toml:"title_color"`
}

// MirrorConfig controls the mirror health probe.
type MirrorConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	Mirrorlist     string `yaml:"mirrorlist" toml:"mirrorlist"`
}

// PacmanConfig locates pacman and its files.
type PacmanConfig struct {
	Binary   string   `yaml:"binary" toml:"binary"`
	DBPath   string   `yaml:"dbpath" toml:"dbpath"`
	LogFile  string   `yaml:"logfile" toml:"logfile"`
	PkgCache string   `yaml:"pkg_cache" toml:"pkg_cache"`
	Repos    []string `yaml:"repos" toml:"repos"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	DataDir       string `yaml:"data_dir" toml:"data_dir"`
	RetentionDays int    `yaml:"retention_days" toml:"retention_days"`
}

// DefaultStats is the stat list shown when none is configured.
var DefaultStats = []string{
	"title",
	"installed",
	"upgradable",
	"last_update",
	"download_size",
	"installed_size",
	"net_upgrade_size",
	"orphaned_packages",
	"cache_size",
	"disk",
	"mirror_url",
	"mirror_health",
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{TTLMinutes: 15},
		Disk:  DiskConfig{Path: "/"},
		Display: DisplayConfig{
			Stats:      append([]string(nil), DefaultStats...),
			Glyph:      ": ",
			LabelColor: "11",
			TitleColor: "11",
		},
		Mirror: MirrorConfig{
			TimeoutSeconds: 5,
			Mirrorlist:     "/etc/pacman.d/mirrorlist",
		},
		Pacman: PacmanConfig{
			Binary:   "pacman",
			DBPath:   "/var/lib/pacman",
			LogFile:  "/var/log/pacman.log",
			PkgCache: "/var/cache/pacman/pkg",
			Repos:    []string{"core", "extra", "multilib"},
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
	}
}

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	SuppressWarnings bool
}

// Load reads the configuration at path. An empty path loads the default
// location, where a missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions is Load with options.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	if path == "" {
		found, err := findDefault()
		if err != nil || found == "" {
			return finish(Default())
		}
		path = found
	}

	if warning := checkFilePermissions(path); warning != "" && !opts.SuppressWarnings {
		fmt.Fprint(os.Stderr, warning)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return LoadTOML(data)
	}
	return LoadBytes(data)
}

// findDefault returns the first existing pacfetch.yaml, pacfetch.yml or
// pacfetch.toml in the config directory.
func findDefault() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"pacfetch.yaml", "pacfetch.yml", "pacfetch.toml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// LoadBytes reads configuration from YAML bytes.
func LoadBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	cfg.Display.Stats = nil
	cfg.Pacman.Repos = nil
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %v", ErrInvalid, err)
	}
	return finish(cfg)
}

// LoadTOML reads configuration from TOML bytes.
func LoadTOML(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	cfg.Display.Stats = nil
	cfg.Pacman.Repos = nil
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %v", ErrInvalid, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PACFETCH_CACHE_TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PACFETCH_CACHE_TTL=%q is not a number", ErrInvalid, v)
		}
		c.Cache.TTLMinutes = ttl
	}
	if v := os.Getenv("PACFETCH_DISK_PATH"); v != "" {
		c.Disk.Path = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()

	if len(c.Display.Stats) == 0 {
		c.Display.Stats = d.Display.Stats
	}
	if c.Display.Glyph == "" {
		c.Display.Glyph = d.Display.Glyph
	}
	if c.Disk.Path == "" {
		c.Disk.Path = d.Disk.Path
	}
	if c.Mirror.TimeoutSeconds == 0 {
		c.Mirror.TimeoutSeconds = d.Mirror.TimeoutSeconds
	}
	if c.Mirror.Mirrorlist == "" {
		c.Mirror.Mirrorlist = d.Mirror.Mirrorlist
	}
	if c.Pacman.Binary == "" {
		c.Pacman.Binary = d.Pacman.Binary
	}
	if c.Pacman.DBPath == "" {
		c.Pacman.DBPath = d.Pacman.DBPath
	}
	if c.Pacman.LogFile == "" {
		c.Pacman.LogFile = d.Pacman.LogFile
	}
	if c.Pacman.PkgCache == "" {
		c.Pacman.PkgCache = d.Pacman.PkgCache
	}
	if len(c.Pacman.Repos) == 0 {
		c.Pacman.Repos = d.Pacman.Repos
	}
	if c.History.RetentionDays == 0 {
		c.History.RetentionDays = d.History.RetentionDays
	}

	c.Cache.Dir = expandTilde(c.Cache.Dir)
	c.History.DataDir = expandTilde(c.History.DataDir)
}

func (c *Config) validate() error {
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes must not be negative, got %d", c.Cache.TTLMinutes)
	}
	if c.Mirror.TimeoutSeconds < 0 {
		return fmt.Errorf("mirror.timeout_seconds must not be negative, got %d", c.Mirror.TimeoutSeconds)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must not be negative, got %d", c.History.RetentionDays)
	}
	for _, repo := range c.Pacman.Repos {
		if strings.TrimSpace(repo) == "" || strings.ContainsRune(repo, '/') {
			return fmt.Errorf("pacman.repos contains an invalid name %q", repo)
		}
	}
	return nil
}

// CacheDir returns the configured database cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// HistoryPath returns the location of the run history database.
func (c *Config) HistoryPath() (string, error) {
	dir := c.History.DataDir
	if dir == "" {
		var err error
		if dir, err = DefaultCacheDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "history.db"), nil
}

// YAML renders the configuration as it would be written to a file.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EnsureDefault writes the default configuration to the default location
// unless a configuration file already exists there.
func EnsureDefault() (string, error) {
	if found, err := findDefault(); err != nil || found != "" {
		return found, err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	data, err := Default().YAML()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "pacfetch.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
