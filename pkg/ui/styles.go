package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonRed     = lipgloss.Color("#FF3131")
	dimWhite    = lipgloss.Color("#B0B0B0")
)

// Styles is the set of styles used for terminal output
type Styles struct {
	Logo      lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Dim       lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles builds styles bound to the renderer of w. Writers that are not
// terminals, and noColor, get plain output.
func NewStyles(w io.Writer, noColor bool) Styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}

	return Styles{
		Logo:      r.NewStyle().Foreground(neonCyan).Bold(true),
		Label:     r.NewStyle().Foreground(neonCyan).Bold(true),
		Value:     r.NewStyle().Foreground(neonYellow),
		Success:   r.NewStyle().Foreground(neonGreen).Bold(true),
		Warning:   r.NewStyle().Foreground(neonYellow),
		Error:     r.NewStyle().Foreground(neonRed).Bold(true),
		Highlight: r.NewStyle().Foreground(neonMagenta),
		Dim:       r.NewStyle().Foreground(dimWhite),
		Header:    r.NewStyle().Foreground(neonCyan).Bold(true).Padding(0, 1),
		Cell:      r.NewStyle().Padding(0, 1),
		Border:    r.NewStyle().Foreground(neonMagenta),
	}
}
