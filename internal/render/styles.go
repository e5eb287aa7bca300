// Package render prints the progress of a repair run to the terminal.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	ColorCyan   = lipgloss.Color("12") // Model replies
	ColorYellow = lipgloss.Color("11") // Running
	ColorGreen  = lipgloss.Color("10") // Success
	ColorRed    = lipgloss.Color("9")  // Errors
	ColorGray   = lipgloss.Color("8")  // Meta info
)

const (
	SymbolExec    = "▶"
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolSystem  = "→"
)

// Styles is the set of styles bound to one output.
type Styles struct {
	Header  lipgloss.Style
	Exec    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles binds the palette to w. A nil profile is detected from w and
// the environment (NO_COLOR, CLICOLOR_FORCE).
func NewStyles(w io.Writer, profile *termenv.Profile) Styles {
	var r *lipgloss.Renderer
	if profile != nil {
		r = lipgloss.NewRenderer(w, termenv.WithProfile(*profile))
	} else {
		r = lipgloss.NewRenderer(w, termenv.WithProfile(termenv.NewOutput(w).EnvColorProfile()))
	}
	return Styles{
		Header:  r.NewStyle().Foreground(ColorCyan).Bold(true),
		Exec:    r.NewStyle().Foreground(ColorYellow),
		Success: r.NewStyle().Foreground(ColorGreen),
		Error:   r.NewStyle().Foreground(ColorRed),
		Dim:     r.NewStyle().Foreground(ColorGray),
	}
}

// Symbol renders a status symbol in its color.
func (s Styles) Symbol(symbol string) string {
	switch symbol {
	case SymbolExec:
		return s.Exec.Render(symbol)
	case SymbolSuccess:
		return s.Success.Render(symbol)
	case SymbolError:
		return s.Error.Render(symbol)
	case SymbolSystem:
		return s.Dim.Render(symbol)
	default:
		return symbol
	}
}
