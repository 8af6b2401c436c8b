package components

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/allbin/go-max3100/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SendMode int

const (
	SendASCII SendMode = iota
	SendHex
)

func (s SendMode) String() string {
	if s == SendHex {
		return "HEX"
	}
	return "ASCII"
}

const historyLimit = 100

type Input struct {
	textInput    textinput.Model
	mode         SendMode
	history      []string
	historyIndex int
	pending      string
	width        int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = "Type message and press Enter to send..."
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.Focus()

	return &Input{
		textInput:    ti,
		mode:         SendASCII,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border, padding, prompt and a space
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus()                { i.textInput.Focus() }
func (i *Input) Blur()                 { i.textInput.Blur() }
func (i *Input) Value() string         { return i.textInput.Value() }
func (i *Input) SetValue(value string) { i.textInput.SetValue(value) }
func (i *Input) Mode() SendMode        { return i.mode }

func (i *Input) ToggleMode() {
	switch i.mode {
	case SendASCII:
		i.mode = SendHex
		i.textInput.Placeholder = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
	case SendHex:
		i.mode = SendASCII
		i.textInput.Placeholder = "Type message and press Enter to send..."
	}
}

// Payload converts the current value to bytes for the active send mode.
func (i *Input) Payload() ([]byte, error) {
	return ParsePayload(i.textInput.Value(), i.mode)
}

// ParsePayload converts text to bytes. Hex input may contain whitespace
// and an optional 0x prefix per byte group.
func ParsePayload(text string, mode SendMode) ([]byte, error) {
	if mode == SendASCII {
		return []byte(text), nil
	}
	var sb strings.Builder
	for _, field := range strings.Fields(text) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		sb.WriteString(field)
	}
	s := sb.String()
	if s == "" {
		return nil, fmt.Errorf("empty hex input")
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex input has odd length %d", len(s))
	}
	p, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return p, nil
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View(insert bool) string {
	symbol, color := ">", styles.Green
	if i.mode == SendHex {
		symbol, color = "#", styles.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(color).Bold(true).Render(symbol)

	var content string
	if insert {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		hint := lipgloss.NewStyle().
			Foreground(styles.Overlay0).
			Render("Press 'i' to enter insert mode")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	}

	style := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(content)
}

// AddToHistory records a sent line, skipping blanks and repeats.
func (i *Input) AddToHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == line {
		return
	}
	i.history = append(i.history, line)
	if len(i.history) > historyLimit {
		i.history = i.history[1:]
	}
	i.historyIndex = -1
	i.pending = ""
}

func (i *Input) HistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.pending = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) HistoryDown() {
	if i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.pending)
	i.pending = ""
}
