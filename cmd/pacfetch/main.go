package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/exitcodes"
	"github.com/johndauphine/pacfetch/internal/logging"
	"github.com/johndauphine/pacfetch/internal/ui"
)

var version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err))
		logging.Close()
		os.Exit(exitcodes.FromError(err))
	}
}

func newApp() *cli.App {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print the version",
	}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "pacfetch %s\n", c.App.Version)
	}

	return &cli.App{
		Name:                   "pacfetch",
		Usage:                  "A neofetch style wrapper for pacman's Syu/Sy/Su commands",
		Version:                version,
		UseShortOptionHandling: true,
		HideHelpCommand:        true,
		Description: `Commands:
   no args      Show stats with sync to a private database cache
  -Sy           Sync package databases, then show stats
  -Su           Show stats, then upgrade the system
  -Syu          Sync databases and upgrade the system`,
		Flags: append(operationFlags(),
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "Output stats as YAML",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default ~/.config/pacfetch/pacfetch.yaml)",
			},
			&cli.StringFlag{
				Name:  "progress",
				Value: "auto",
				Usage: "Progress display: auto, spinner, json or none",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format: text or json",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Value: "warn",
				Usage: "Log verbosity level (debug, info, warn, error)",
			},
		),
		Before: setup,
		After: func(c *cli.Context) error {
			logging.Close()
			return nil
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List recent sync and upgrade runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Number of runs to show",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output runs as JSON",
					},
				},
				Action: showHistory,
			},
		},
	}
}

// operationFlags are the flags that may also appear in default_args.
func operationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "S", Usage: "Sync operation (combine with -y and/or -u)"},
		&cli.BoolFlag{Name: "y", Usage: "Refresh package databases"},
		&cli.BoolFlag{Name: "u", Usage: "Upgrade installed packages"},
		&cli.BoolFlag{Name: "local", Usage: "Use the system databases as they are (skip the cached sync)"},
		&cli.BoolFlag{Name: "json", Usage: "Output stats as JSON"},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "Debug mode: plain output and timing logs"},
	}
}

func setup(c *cli.Context) error {
	level, err := logging.ParseLevel(c.String("verbosity"))
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if c.Bool("debug") {
		level = logging.LevelDebug
	}
	logging.SetLevel(level)

	if c.String("log-format") == "json" {
		logging.SetFormat("json")
	}

	if path, err := config.LogPath(); err == nil {
		logging.SetFile(path)
	}

	if c.String("config") == "" {
		if path, err := config.EnsureDefault(); err != nil {
			logging.Debug("writing default config: %v", err)
		} else {
			logging.Debug("config: %s", path)
		}
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}
