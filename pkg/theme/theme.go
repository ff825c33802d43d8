// Package theme holds the shared terminal styles used by the CLI help
// renderer and the log formatter.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette holds the raw colors the styles are built from.
type Palette struct {
	Fg     lipgloss.Color
	Muted  lipgloss.Color
	Red    lipgloss.Color
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Blue   lipgloss.Color
	Cyan   lipgloss.Color
	Violet lipgloss.Color
	Orange lipgloss.Color
	Border lipgloss.Color
}

// Theme groups the lipgloss styles used for terminal output.
type Theme struct {
	Colors Palette

	Title   lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style
	Italic  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultTheme is the theme applied to all terminal output.
var DefaultTheme = NewTheme(Palette{
	Fg:     lipgloss.Color("#DCD7BA"),
	Muted:  lipgloss.Color("#727169"),
	Red:    lipgloss.Color("#FF5D62"),
	Green:  lipgloss.Color("#98BB6C"),
	Yellow: lipgloss.Color("#E6C384"),
	Blue:   lipgloss.Color("#7E9CD8"),
	Cyan:   lipgloss.Color("#7FB4CA"),
	Violet: lipgloss.Color("#957FB8"),
	Orange: lipgloss.Color("#FF9E3B"),
	Border: lipgloss.Color("#363646"),
})

// NewTheme builds a Theme from a palette.
func NewTheme(p Palette) Theme {
	return Theme{
		Colors:  p,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Fg),
		Accent:  lipgloss.NewStyle().Foreground(p.Blue),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Italic:  lipgloss.NewStyle().Italic(true).Foreground(p.Muted),
		Success: lipgloss.NewStyle().Foreground(p.Green),
		Warning: lipgloss.NewStyle().Foreground(p.Orange),
		Error:   lipgloss.NewStyle().Foreground(p.Red),
		Border:  lipgloss.NewStyle().Foreground(p.Border),
	}
}
