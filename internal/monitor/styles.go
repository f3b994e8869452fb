package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorGreen   = lipgloss.Color("42")
	colorYellow  = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorBlue    = lipgloss.Color("39")
	colorGray    = lipgloss.Color("245")
	colorMagenta = lipgloss.Color("165")
	colorWhite   = lipgloss.Color("255")
	colorBorder  = lipgloss.Color("240")
)

// Styles defines the visual styles for the dashboard
type Styles struct {
	Box      lipgloss.Style
	Title    lipgloss.Style
	Section  lipgloss.Style
	Header   lipgloss.Style
	Text     lipgloss.Style
	Faint    lipgloss.Style
	Selected lipgloss.Style
	Loading  lipgloss.Style
	Alert    lipgloss.Style

	StatusRunning lipgloss.Style
	StatusDone    lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusWaiting lipgloss.Style
	StatusUnknown lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		Text: lipgloss.NewStyle().
			Foreground(colorWhite),

		Faint: lipgloss.NewStyle().
			Foreground(colorGray),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("236")).
			Foreground(colorWhite),

		Loading: lipgloss.NewStyle().
			Foreground(colorYellow),

		Alert: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(0, 1),

		StatusRunning: lipgloss.NewStyle().Foreground(colorGreen),
		StatusDone:    lipgloss.NewStyle().Foreground(colorBlue),
		StatusFailed:  lipgloss.NewStyle().Foreground(colorRed),
		StatusWaiting: lipgloss.NewStyle().Foreground(colorYellow),
		StatusUnknown: lipgloss.NewStyle().Foreground(colorMagenta),
	}
}

// StatusStyle picks a color for a free-form execution status.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "running", "started", "evaluating", "live":
		return s.StatusRunning
	case "done", "succeeded", "success", "completed", "finished", "ended":
		return s.StatusDone
	case "failed", "failure", "error", "errored", "cancelled", "canceled":
		return s.StatusFailed
	case "queued", "pending", "waiting", "backlogged":
		return s.StatusWaiting
	case "", "-":
		return s.Text
	default:
		return s.StatusUnknown
	}
}
