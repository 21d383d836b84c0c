package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/johndauphine/pacfetch/internal/history"
	"github.com/johndauphine/pacfetch/internal/ui"
)

type runJSON struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

func showHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		list := make([]runJSON, 0, len(runs))
		for _, r := range runs {
			list = append(list, runJSON{r.ID, r.Kind, r.StartedAt, r.FinishedAt, r.Status, r.Error})
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Row = text.Colors{text.Reset}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	t.AppendHeader(table.Row{text.Bold.Sprint("Run"), text.Bold.Sprint("Kind"), text.Bold.Sprint("Started"), text.Bold.Sprint("Duration"), text.Bold.Sprint("Status"), text.Bold.Sprint("Error")})
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Second).String()
		}
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.Kind,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			ui.Status(r.Status),
			r.Error,
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
