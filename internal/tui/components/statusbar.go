package components

import (
	"fmt"

	"github.com/allbin/go-max3100/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// DeviceInfo is what the status bar knows about the open chip.
type DeviceInfo struct {
	Bus        int
	Chip       int
	BaudRate   int
	Crystal    string
	MaxSpeedHz uint32
	Driver     string
	Buffered   int
	Overruns   uint64
	Exchanges  uint64
}

type StatusBar struct {
	state styles.State
	err   error
	width int
	info  *DeviceInfo
}

func NewStatusBar() *StatusBar {
	return &StatusBar{state: styles.StateOpening}
}

func (sb *StatusBar) SetWidth(width int)         { sb.width = width }
func (sb *StatusBar) SetDeviceInfo(i *DeviceInfo) { sb.info = i }
func (sb *StatusBar) Err() error                  { return sb.err }

func (sb *StatusBar) SetOpen() {
	sb.state = styles.StateOpen
	sb.err = nil
}

func (sb *StatusBar) SetClosed(err error) {
	sb.state = styles.StateClosed
	sb.err = err
	if err != nil {
		sb.state = styles.StateError
	}
}

// Name is the bus address shown next to the mode.
func (sb *StatusBar) Name() string {
	if sb.info == nil {
		return "max3100"
	}
	return fmt.Sprintf("spi%d.%d", sb.info.Bus, sb.info.Chip)
}

// Details summarises the line settings and counters.
func (sb *StatusBar) Details() string {
	if sb.info == nil {
		return "⚡ max3100"
	}
	s := fmt.Sprintf("⚡ %d baud @ %s, %.1f MHz %s, rx %d",
		sb.info.BaudRate, sb.info.Crystal, float64(sb.info.MaxSpeedHz)/1e6, sb.info.Driver, sb.info.Buffered)
	if sb.info.Overruns > 0 {
		s += fmt.Sprintf(", %d overruns", sb.info.Overruns)
	}
	return s
}

func (sb *StatusBar) View(insert bool, mode SendMode, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeText, modeColor := "NORMAL", styles.Blue
	if insert {
		modeText, modeColor = "INSERT", styles.Green
	}
	modeView := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(modeText)

	name := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.Name())

	glyph, glyphStyle := styles.StateIndicator(sb.state)
	indicator := glyphStyle.Render(glyph)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{modeView, name, indicator}
	if insert {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", mode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1).Render(sb.Details())
	clock := lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1).Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	gap := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
