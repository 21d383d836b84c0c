// Package ui renders stats for the terminal. Every function takes its
// styles explicitly and returns text; nothing here writes to the terminal
// or changes its state.
package ui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/johndauphine/pacfetch/internal/ansi"
	"github.com/johndauphine/pacfetch/internal/config"
	"github.com/johndauphine/pacfetch/internal/stats"
)

var (
	colorRed   = lipgloss.Color("#FF4141")
	colorGreen = lipgloss.Color("#04B575")
	colorGray  = lipgloss.Color("#626262")

	styleError = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorGray)
)

// Theme is the set of styles used to draw the stat block.
type Theme struct {
	Title lipgloss.Style
	Rule  lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Glyph string
	// RuleChar is repeated under the title.
	RuleChar string
}

// named maps the color names accepted in the config to ANSI palette
// indexes.
var named = map[string]string{
	"black":          "0",
	"red":            "1",
	"dark_red":       "1",
	"green":          "2",
	"dark_green":     "2",
	"yellow":         "3",
	"dark_yellow":    "3",
	"blue":           "4",
	"dark_blue":      "4",
	"magenta":        "5",
	"dark_magenta":   "5",
	"cyan":           "6",
	"dark_cyan":      "6",
	"white":          "15",
	"grey":           "7",
	"gray":           "7",
	"dark_grey":      "8",
	"dark_gray":      "8",
	"bright_red":     "9",
	"bright_green":   "10",
	"bright_yellow":  "11",
	"bright_blue":    "12",
	"bright_magenta": "13",
	"bright_cyan":    "14",
	"bright_white":   "15",
}

var (
	hexColor  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	ansiColor = regexp.MustCompile(`^[0-9]{1,3}$`)
)

// ParseColor resolves a configured color: an ANSI index ("11"), a
// "#RRGGBB" hex value or a name such as "bright_yellow". ok is false for
// "", "none" and anything unrecognised.
func ParseColor(s string) (lipgloss.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "none":
		return "", false
	case hexColor.MatchString(s), ansiColor.MatchString(s):
		return lipgloss.Color(s), true
	}
	if idx, ok := named[s]; ok {
		return lipgloss.Color(idx), true
	}
	return "", false
}

func colored(s string, bold bool) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(bold)
	if c, ok := ParseColor(s); ok {
		st = st.Foreground(c)
	}
	return st
}

// NewTheme builds a Theme from the display configuration.
func NewTheme(d config.DisplayConfig) Theme {
	return Theme{
		Title:    colored(d.TitleColor, true),
		Rule:     lipgloss.NewStyle(),
		Label:    colored(d.LabelColor, true),
		Value:    colored(d.ValueColor, false),
		Glyph:    d.Glyph,
		RuleChar: "-",
	}
}

// TitleText is the text of a title entry: its own text when configured as
// "title.<text>", otherwise the pacman version banner.
func TitleText(e stats.Entry, s *stats.Stats) string {
	if e.Text != "" {
		return e.Text
	}
	if s.PacmanVersion != "" {
		return s.PacmanVersion
	}
	return "pacfetch"
}

// Lines renders one line per displayable entry. Titles take two lines:
// the text and a rule of the same visible width. Labels are padded so
// that values line up.
func Lines(entries []stats.Entry, s *stats.Stats, th Theme) []string {
	labelWidth := 0
	for _, e := range entries {
		if e.ID == stats.Title {
			continue
		}
		if _, ok := s.Value(e.ID); ok {
			labelWidth = max(labelWidth, ansi.Width(e.ID.Label()))
		}
	}

	rule := th.RuleChar
	if rule == "" {
		rule = "-"
	}

	var lines []string
	for _, e := range entries {
		if e.ID == stats.Title {
			text := TitleText(e, s)
			lines = append(lines,
				th.Title.Render(text),
				th.Rule.Render(strings.Repeat(rule, ansi.Width(text))),
			)
			continue
		}
		value, ok := s.Value(e.ID)
		if !ok {
			continue
		}
		label := e.ID.Label()
		pad := strings.Repeat(" ", labelWidth-ansi.Width(label))
		lines = append(lines, th.Label.Render(label)+pad+th.Glyph+th.Value.Render(value))
	}
	return lines
}

// Render joins Lines with newlines.
func Render(entries []stats.Entry, s *stats.Stats, th Theme) string {
	return strings.Join(Lines(entries, s, th), "\n")
}

// Error formats err the way pacman reports failures.
func Error(err error) string {
	return styleError.Render("error:") + " " + err.Error()
}

// Status colors a run status for listings.
func Status(status string) string {
	switch status {
	case "success":
		return styleSuccess.Render(status)
	case "failed":
		return styleError.Render(status)
	default:
		return styleMuted.Render(status)
	}
}
