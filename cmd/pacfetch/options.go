package main

import (
	"errors"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/exitcodes"
	"github.com/johndauphine/pacfetch/internal/logging"
)

var errFlagCombination = errors.New("unrecognized flag combination")

// options are the operation flags of one invocation.
type options struct {
	sync    bool // -S
	refresh bool // -y
	upgrade bool // -u
	local   bool
	json    bool
	yaml    bool
	debug   bool
}

func optionsFrom(c *cli.Context) options {
	return options{
		sync:    c.Bool("S"),
		refresh: c.Bool("y"),
		upgrade: c.Bool("u"),
		local:   c.Bool("local"),
		json:    c.Bool("json"),
		yaml:    c.Bool("yaml"),
		debug:   c.Bool("debug"),
	}
}

// bare reports whether no operation was requested.
func (o options) bare() bool {
	return !o.sync && !o.refresh && !o.upgrade && !o.local
}

// validate rejects -S alone and -y/-u without -S.
func (o options) validate() error {
	if (o.sync && !o.refresh && !o.upgrade) || ((o.refresh || o.upgrade) && !o.sync) {
		return exitcodes.NewExitError(errFlagCombination, exitcodes.ConfigError)
	}
	return nil
}

// fresh reports whether stats should use a freshly synced cache. Every
// -S operation works on the system databases, which -Sy has just
// refreshed.
func (o options) fresh() bool {
	return !o.local && !o.sync
}

// withDefaultArgs parses args (the config's default_args) as operation
// flags. Output flags given on the command line are kept. Invalid
// default_args are reported and ignored.
func (o options) withDefaultArgs(args string) options {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return o
	}

	var parsed options
	app := &cli.App{
		Name:                   "pacfetch",
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
		Writer:                 io.Discard,
		ErrWriter:              io.Discard,
		Flags: append(operationFlags(),
			&cli.BoolFlag{Name: "yaml"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return errors.New("unexpected argument " + c.Args().First())
			}
			parsed = optionsFrom(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"pacfetch"}, fields...)); err != nil {
		logging.Warn("invalid default_args in config: %q", args)
		return o
	}

	parsed.json = parsed.json || o.json
	parsed.yaml = parsed.yaml || o.yaml
	parsed.debug = parsed.debug || o.debug
	return parsed
}

// applyConfig folds the config's default_args into a bare invocation.
func (o options) applyConfig(cfg *config.Config) options {
	if o.bare() && cfg.DefaultArgs != "" {
		return o.withDefaultArgs(cfg.DefaultArgs)
	}
	return o
}
