package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains the shared console styles
type Styles struct {
	// Text styles
	Title lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Value lipgloss.Style

	// Layout
	Card  lipgloss.Style
	Label lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the singleton default Styles instance
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

func newStyles() *Styles {
	return &Styles{
		// Text styles
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(Teal).
			MarginBottom(1),

		Body: lipgloss.NewStyle().
			Foreground(LightGray),

		Muted: lipgloss.NewStyle().
			Foreground(DimGray),

		Value: lipgloss.NewStyle().
			Bold(true).
			Foreground(Success),

		// Layout
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGray).
			Padding(0, 2),

		Label: lipgloss.NewStyle().
			Foreground(LightGray).
			Width(74),

		// Status indicators
		Success: lipgloss.NewStyle().
			Foreground(Success),

		Warning: lipgloss.NewStyle().
			Foreground(Warning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(Error),

		Info: lipgloss.NewStyle().
			Foreground(Info),
	}
}
