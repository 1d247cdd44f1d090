// Package render formats ntfytoast output for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/history"
)

const (
	titleWidth = 40
	appWidth   = 32
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(ansiColorNumber(colors.Blue))).
			Padding(0, 1)
)

// History renders entries as a table, newest first as given.
func History(entries []history.Entry, now time.Time) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No notifications in history.")
	}
	if now.IsZero() {
		now = time.Now()
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Tag,
			truncate(e.AppID, appWidth),
			outcome(e),
			truncate(e.Title, titleWidth),
			Age(e.CreatedAt, now),
		})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "APP", "OUTCOME", "TITLE", "SHOWN").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	return t.String()
}

// Age renders t relative to now.
func Age(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func outcome(e history.Entry) string {
	if !e.Resolved {
		return "● pending"
	}
	switch e.Outcome {
	case action.Clicked, action.ButtonClicked, action.TextEntered:
		return "✓ " + e.Outcome.String()
	case action.Error:
		return "✗ error"
	default:
		return "○ " + e.Outcome.String()
	}
}

// Banner describes the build and the activation identity.
type Banner struct {
	Version      string
	AppID        string
	CallbackID   string
	Capabilities []string
}

// VersionBanner renders the version box.
func VersionBanner(b Banner) string {
	lines := []string{
		fmt.Sprintf("Version ................ v%s", b.Version),
		fmt.Sprintf("AppID .................. %s", b.AppID),
		fmt.Sprintf("CallbackID ............. %s", b.CallbackID),
	}
	if len(b.Capabilities) > 0 {
		lines = append(lines, fmt.Sprintf("Server capabilities .... %s", strings.Join(b.Capabilities, ", ")))
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func truncate(value string, width int) string {
	if width <= 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	return string([]rune(value)[:width-1]) + "…"
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
