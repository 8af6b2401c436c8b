package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the console uses
var (
	Text     = lipgloss.Color("#cdd6f4")
	Subtext1 = lipgloss.Color("#bac2de")
	Subtext0 = lipgloss.Color("#a6adc8")
	Overlay0 = lipgloss.Color("#6c7086")
	Surface2 = lipgloss.Color("#585b70")
	Surface1 = lipgloss.Color("#45475a")
	Surface0 = lipgloss.Color("#313244")
	Base     = lipgloss.Color("#1e1e2e")

	Mauve  = lipgloss.Color("#cba6f7")
	Red    = lipgloss.Color("#f38ba8")
	Peach  = lipgloss.Color("#fab387")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
	Sky    = lipgloss.Color("#89dceb")
	Blue   = lipgloss.Color("#89b4fa")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Background(Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Subtext0)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// State is the connection state shown in the status bar.
type State int

const (
	StateOpen State = iota
	StateClosed
	StateOpening
	StateError
)

// StateIndicator returns the glyph and its style for a connection state.
func StateIndicator(s State) (string, lipgloss.Style) {
	switch s {
	case StateOpen:
		return "●", lipgloss.NewStyle().Foreground(Green)
	case StateOpening:
		return "○", lipgloss.NewStyle().Foreground(Yellow)
	case StateError:
		return "✗", lipgloss.NewStyle().Foreground(Red)
	default:
		return "○", lipgloss.NewStyle().Foreground(Red)
	}
}
