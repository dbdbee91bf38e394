package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorMuted   = lipgloss.Color("#6C7A89")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

// Styles colour the runner's own output. Answers are printed unstyled.
type Styles struct {
	Prompt  lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds styles for w; colours are dropped when w is not a terminal
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Prompt:  r.NewStyle().Bold(true).Foreground(colorAccent),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError),
	}
}
