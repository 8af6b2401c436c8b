package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-max3100/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Direction tells received chunks from sent ones.
type Direction int

const (
	RX Direction = iota
	TX
)

// SendStatus tracks a TX chunk through the write path.
type SendStatus int

const (
	SendNone SendStatus = iota
	SendPending
	SendDone
	SendFailed
)

// DataMsg is one chunk of traffic shown in the console.
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	Dir       Direction
	Status    SendStatus
	ID        int
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type Formatter struct {
	mode DisplayMode
}

func NewFormatter(showHex, showASCII bool) *Formatter {
	return &Formatter{mode: DisplayMode{ShowHex: showHex, ShowASCII: showASCII}}
}

func (f *Formatter) Mode() DisplayMode { return f.mode }
func (f *Formatter) ToggleHex()        { f.mode.ShowHex = !f.mode.ShowHex }
func (f *Formatter) ToggleASCII()      { f.mode.ShowASCII = !f.mode.ShowASCII }

// Hex renders bytes as spaced uppercase hex.
func Hex(p []byte) string {
	return fmt.Sprintf("% X", p)
}

// Printable replaces everything outside printable ASCII with a dot.
func Printable(p []byte) string {
	var sb strings.Builder
	sb.Grow(len(p))
	for _, b := range p {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// Indicator returns the plain direction label of msg.
func Indicator(msg DataMsg) string {
	if msg.Dir == RX {
		return "↙ RX"
	}
	switch msg.Status {
	case SendPending:
		return "↗ TX ○"
	case SendDone:
		return "↗ TX ✓"
	case SendFailed:
		return "↗ TX ✗"
	default:
		return "↗ TX"
	}
}

func indicatorColor(msg DataMsg) lipgloss.Color {
	if msg.Dir == RX {
		return styles.Sky
	}
	switch msg.Status {
	case SendPending:
		return styles.Yellow
	case SendDone:
		return styles.Green
	case SendFailed:
		return styles.Red
	default:
		return styles.Peach
	}
}

// Parts returns the data columns of msg for the current display mode.
func (f *Formatter) Parts(msg DataMsg) []string {
	var parts []string
	if f.mode.ShowHex {
		parts = append(parts, "HEX: "+Hex(msg.Data))
	}
	if f.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(msg.Data))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}
	return parts
}

func (f *Formatter) Format(msg DataMsg) string {
	ts := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render("[" + msg.Timestamp.Format("15:04:05.000") + "]")
	ind := lipgloss.NewStyle().
		Foreground(indicatorColor(msg)).
		Bold(true).
		Render(Indicator(msg))
	return fmt.Sprintf("%s %s: %s", ts, ind, strings.Join(f.Parts(msg), "  "))
}

func (f *Formatter) FormatAll(msgs []DataMsg) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = f.Format(m)
	}
	return out
}
