package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// LogView shows traffic as formatted lines in a scrolling viewport.
type LogView struct {
	viewport  viewport.Model
	formatter *Formatter
	follow    bool
}

func NewLogView(width, height int, f *Formatter) *LogView {
	return &LogView{
		viewport:  viewport.New(width, height),
		formatter: f,
		follow:    true,
	}
}

func (l *LogView) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
}

// Refresh re-renders every message, keeping the scroll position unless the
// view follows the tail.
func (l *LogView) Refresh(msgs []DataMsg) {
	l.viewport.SetContent(strings.Join(l.formatter.FormatAll(msgs), "\n"))
	if l.follow {
		l.viewport.GotoBottom()
	}
}

func (l *LogView) ScrollUp() {
	l.follow = false
	l.viewport.ScrollUp(1)
}

func (l *LogView) ScrollDown() {
	l.viewport.ScrollDown(1)
	l.follow = l.viewport.AtBottom()
}

func (l *LogView) GotoTop() {
	l.follow = false
	l.viewport.GotoTop()
}

func (l *LogView) GotoBottom() {
	l.follow = true
	l.viewport.GotoBottom()
}

func (l *LogView) Following() bool { return l.follow }

func (l *LogView) Update(msg tea.Msg) tea.Cmd {
	// keys belong to the console, only resizes reach the viewport
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		l.viewport, cmd = l.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (l *LogView) View() string {
	return l.viewport.View()
}
