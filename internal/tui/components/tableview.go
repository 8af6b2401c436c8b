package components

import (
	"fmt"

	"github.com/allbin/go-max3100/internal/tui/styles"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	timeWidth  = 14
	dirWidth   = 8
	bytesWidth = 6
)

// TableView shows traffic one chunk per row. It follows the tail until the
// cursor is moved up.
type TableView struct {
	table     table.Model
	formatter *Formatter
	follow    bool
	width     int
}

func NewTableView(width, height int, f *Formatter) *TableView {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(max(height, 5)),
		table.WithWidth(max(width, 40)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Text)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Surface1).
		Bold(false)
	t.SetStyles(s)

	tv := &TableView{table: t, formatter: f, follow: true, width: width}
	tv.table.SetColumns(tv.columns())
	return tv
}

func (tv *TableView) SetSize(width, height int) {
	tv.width = width
	tv.table.SetColumns(tv.columns())
	tv.table.SetHeight(max(height, 5))
	tv.table.SetWidth(max(width, 40))
}

func (tv *TableView) columns() []table.Column {
	mode := tv.formatter.Mode()
	rest := max(tv.width-timeWidth-dirWidth-bytesWidth-10, 20)

	cols := []table.Column{
		{Title: "Time", Width: timeWidth},
		{Title: "Dir", Width: dirWidth},
	}
	switch {
	case mode.ShowHex && mode.ShowASCII:
		cols = append(cols,
			table.Column{Title: "Hex", Width: rest * 7 / 10},
			table.Column{Title: "ASCII", Width: rest * 3 / 10})
	case mode.ShowHex:
		cols = append(cols, table.Column{Title: "Hex", Width: rest})
	case mode.ShowASCII:
		cols = append(cols, table.Column{Title: "ASCII", Width: rest})
	}
	return append(cols, table.Column{Title: "Bytes", Width: bytesWidth})
}

// Rows builds the table rows for msgs with the current display mode.
func (tv *TableView) Rows(msgs []DataMsg) []table.Row {
	mode := tv.formatter.Mode()
	rows := make([]table.Row, 0, len(msgs))
	for _, m := range msgs {
		row := table.Row{m.Timestamp.Format("15:04:05.000"), Indicator(m)}
		if mode.ShowHex {
			row = append(row, Hex(m.Data))
		}
		if mode.ShowASCII {
			row = append(row, Printable(m.Data))
		}
		rows = append(rows, append(row, fmt.Sprint(len(m.Data))))
	}
	return rows
}

func (tv *TableView) Refresh(msgs []DataMsg) {
	// columns first so the row width always matches
	tv.table.SetRows(nil)
	tv.table.SetColumns(tv.columns())
	tv.table.SetRows(tv.Rows(msgs))
	if tv.follow {
		tv.table.GotoBottom()
	}
}

func (tv *TableView) ScrollUp() {
	tv.follow = false
	tv.table.MoveUp(1)
}

func (tv *TableView) ScrollDown() {
	tv.table.MoveDown(1)
	tv.follow = tv.table.Cursor() >= len(tv.table.Rows())-1
}

func (tv *TableView) GotoTop() {
	tv.follow = false
	tv.table.GotoTop()
}

func (tv *TableView) GotoBottom() {
	tv.follow = true
	tv.table.GotoBottom()
}

func (tv *TableView) Following() bool { return tv.follow }

func (tv *TableView) View() string {
	return tv.table.View()
}
