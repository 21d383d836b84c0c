package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/johndauphine/pacfetch/internal/alpmdb"
	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/dbcache"
	"github.com/johndauphine/pacfetch/internal/history"
	"github.com/johndauphine/pacfetch/internal/logging"
	"github.com/johndauphine/pacfetch/internal/mirror"
	"github.com/johndauphine/pacfetch/internal/pacman"
	"github.com/johndauphine/pacfetch/internal/progress"
	"github.com/johndauphine/pacfetch/internal/stats"
	"github.com/johndauphine/pacfetch/internal/ui"
)

func run(c *cli.Context) error {
	if c.NArg() > 0 {
		cli.ShowAppHelp(c)
		return fmt.Errorf("%w: unrecognized flag %q", config.ErrInvalid, c.Args().First())
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	entries, err := stats.ParseList(cfg.Display.Stats)
	if err != nil {
		return fmt.Errorf("%w: display.stats: %v", config.ErrInvalid, err)
	}

	opts := optionsFrom(c).applyConfig(cfg)
	if err := opts.validate(); err != nil {
		cli.ShowAppHelp(c)
		return err
	}

	s := newSession(cfg, entries, opts, c.String("progress"))
	s.out = c.App.Writer
	defer s.close()

	switch {
	case opts.sync && opts.upgrade:
		return s.upgrade(c.Context)
	case opts.sync && opts.refresh:
		if err := s.syncSystem(); err != nil {
			return err
		}
		return s.show(c.Context)
	default:
		return s.show(c.Context)
	}
}

// session carries what one invocation needs across its steps.
type session struct {
	cfg      *config.Config
	entries  []stats.Entry
	opts     options
	progress string
	out      io.Writer
	history  *history.Store
	runner   *pacman.Runner
}

func newSession(cfg *config.Config, entries []stats.Entry, opts options, progressMode string) *session {
	s := &session{
		cfg:      cfg,
		entries:  entries,
		opts:     opts,
		progress: progressMode,
		out:      os.Stdout,
		runner:   &pacman.Runner{Binary: cfg.Pacman.Binary},
	}
	s.history = openHistory(cfg)
	return s
}

func openHistory(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		logging.Debug("history disabled: %v", err)
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		logging.Warn("history disabled: %v", err)
		return nil
	}
	if n, err := store.Cleanup(cfg.History.RetentionDays); err != nil {
		logging.Warn("pruning history: %v", err)
	} else if n > 0 {
		logging.Debug("pruned %d runs older than %d days", n, cfg.History.RetentionDays)
	}
	return store
}

func (s *session) close() {
	if s.history != nil {
		s.history.Close()
	}
}

// reporter picks the progress display. Machine output and debug mode
// never draw a spinner.
func (s *session) reporter(initial string) progress.Reporter {
	mode := s.progress
	if mode == "" || mode == "auto" {
		mode = "none"
		if !s.opts.json && !s.opts.yaml && !s.opts.debug && term.IsTerminal(int(os.Stderr.Fd())) {
			mode = "spinner"
		}
	}
	return progress.New(mode, os.Stderr, initial)
}

func (s *session) record(kind string) func(fn func() error) error {
	return func(fn func() error) error {
		return s.history.Record(kind, fn)
	}
}

// syncSystem runs pacman -Sy on the system databases. It requires root.
func (s *session) syncSystem() error {
	rep := s.reporter("Syncing databases")
	defer rep.Close()
	return s.history.Record(history.KindSync, func() error {
		return s.runner.SyncSystem(func(snapshot string) {
			rep.Report("Syncing databases: " + snapshot)
		})
	})
}

// upgrade shows stats and hands the terminal to pacman -Su.
func (s *session) upgrade(ctx context.Context) error {
	if err := pacman.RequireRoot(); err != nil {
		return err
	}
	if s.opts.refresh {
		if err := s.syncSystem(); err != nil {
			return err
		}
	}
	if err := s.show(ctx); err != nil {
		return err
	}
	return s.history.Record(history.KindUpgrade, func() error {
		return s.runner.Upgrade(os.Stdout, os.Stdin)
	})
}

func (s *session) show(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.opts.debug {
		fmt.Fprintln(s.out)
	}

	rep := s.reporter("Gathering stats")
	g := &stats.Gatherer{
		Config: s.cfg,
		DB:     alpmdb.New(s.cfg.Pacman.Repos),
		Mirror: mirror.New(time.Duration(s.cfg.Mirror.TimeoutSeconds) * time.Second),
		Report: rep.Report,
	}
	if s.opts.fresh() {
		if cs := s.cacheSync(); cs != nil {
			g.Sync = cs.DBPath
		}
	}
	st := g.Gather(ctx, s.entries)
	rep.Close()
	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case s.opts.json:
		return st.WriteJSON(s.out)
	case s.opts.yaml:
		return st.WriteYAML(s.out)
	}
	fmt.Fprintln(s.out, ui.Render(s.entries, st, ui.NewTheme(s.cfg.Display)))
	fmt.Fprintln(s.out)
	return nil
}

func (s *session) cacheSync() *stats.CacheSync {
	dir, err := s.cfg.CacheDir()
	if err != nil {
		logging.Warn("database cache unavailable: %v", err)
		return nil
	}
	logging.Debug("using cached database %s (TTL %dmin)", dir, s.cfg.Cache.TTLMinutes)
	return &stats.CacheSync{
		Dir:        dir,
		SystemDir:  s.cfg.Pacman.DBPath,
		TTLMinutes: s.cfg.Cache.TTLMinutes,
		Syncer: dbcache.Syncer{
			Pacman: s.cfg.Pacman.Binary,
			Root:   pacman.IsRoot(),
		},
		Record: s.record(history.KindCache),
	}
}
