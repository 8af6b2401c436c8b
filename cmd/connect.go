/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/internal/tui/components"
	"github.com/allbin/go-max3100/internal/tui/keys"
	"github.com/allbin/go-max3100/internal/tui/models"
	"github.com/allbin/go-max3100/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Interactive bidirectional console on the MAX3100",
	Long: `Open the MAX3100 with an interactive terminal interface.

Received bytes stream in with timestamps and sent data is tracked until the
transmitter has taken every byte. Features include:
- ASCII and hex input (Tab toggles)
- Hex and ASCII display columns
- Scrolling log or table view (t toggles)
- Receive buffer flush (x)
- Bus counters and overruns in the status bar

Example usage:
  max3100 connect
  max3100 connect --bus 1 --baud 115200
  max3100 connect --driver sim`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		poll, _ := cmd.Flags().GetDuration("poll")
		sendTimeout, _ := cmd.Flags().GetDuration("send-timeout")

		if err := runConsole(poll, sendTimeout); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Duration("poll", 5*time.Millisecond, "Receive poll interval when the line is idle")
	connectCmd.Flags().Duration("send-timeout", 5*time.Second, "Give up on a line that the transmitter does not take")
}

const (
	inputHeight     = 3
	statusBarHeight = 1
	refreshInterval = 500 * time.Millisecond
)

// sendResultMsg reports the end of a queued write
type sendResultMsg struct {
	id  int
	err error
}

type refreshMsg time.Time

// consoleModel represents the Bubble Tea model for the connect command
type consoleModel struct {
	*models.Session
	formatter   *components.Formatter
	logView     *components.LogView
	tableView   *components.TableView
	showTable   bool
	statusBar   *components.StatusBar
	input       *components.Input
	help        help.Model
	keys        keys.ConsoleKeys
	info        components.DeviceInfo
	sendTimeout time.Duration
}

func newConsoleModel(sendTimeout time.Duration) *consoleModel {
	f := components.NewFormatter(true, true)
	m := &consoleModel{
		Session:     models.NewSession(),
		formatter:   f,
		logView:     components.NewLogView(0, 0, f),
		tableView:   components.NewTableView(0, 0, f),
		statusBar:   components.NewStatusBar(),
		input:       components.NewInput(),
		help:        help.New(),
		keys:        keys.NewConsoleKeys(),
		sendTimeout: sendTimeout,
		info: components.DeviceInfo{
			Bus:        viper.GetInt("bus"),
			Chip:       viper.GetInt("device"),
			BaudRate:   viper.GetInt("baud"),
			Crystal:    max3100.Crystal(viper.GetInt("crystal")).String(),
			MaxSpeedHz: viper.GetUint32("spi-speed"),
			Driver:     viper.GetString("driver"),
		},
	}
	m.statusBar.SetDeviceInfo(&m.info)
	return m
}

func runConsole(poll, sendTimeout time.Duration) error {
	m := newConsoleModel(sendTimeout)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go func() {
		dev, err := openDevice()
		if err != nil {
			p.Send(models.DeviceStatusMsg{Open: false, Error: err})
			return
		}
		m.SetDevice(dev)
		if m.Context().Err() != nil {
			// quit before the open finished
			dev.Close()
			return
		}
		p.Send(models.DeviceStatusMsg{Open: true})

		if err := receiveLoop(m.Context(), dev, poll, func(data []byte) {
			p.Send(components.DataMsg{Timestamp: time.Now(), Data: data, Dir: components.RX})
		}); err != nil {
			p.Send(models.DeviceStatusMsg{Open: false, Error: err})
		}
	}()

	_, err := p.Run()
	return err
}

// receiveLoop drains the device without blocking and sleeps for poll when
// nothing arrived. It returns nil once ctx is done.
func receiveLoop(ctx context.Context, dev *max3100.Device, poll time.Duration, emit func([]byte)) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		data, err := dev.Receive(-1024)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(data) > 0 {
			emit(data)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m *consoleModel) Init() tea.Cmd {
	return refreshTick()
}

// refresh redraws both views so their columns always match the display mode
func (m *consoleModel) refresh() {
	traffic := m.Traffic()
	m.tableView.Refresh(traffic)
	m.logView.Refresh(traffic)
}

func (m *consoleModel) updateInfo() {
	dev := m.Device()
	if dev == nil || !dev.IsOpen() {
		return
	}
	if n, err := dev.Available(); err == nil {
		m.info.Buffered = n
	}
	stats := dev.Stats()
	m.info.Overruns = stats.Overruns
	m.info.Exchanges = stats.Exchanges
	m.info.MaxSpeedHz = dev.MaxSpeedHz()
}

func (m *consoleModel) note(text string) {
	m.Add(components.DataMsg{Timestamp: time.Now(), Data: []byte(text), Dir: components.RX})
	m.refresh()
}

// send queues a write and returns the command that performs it
func (m *consoleModel) send() tea.Cmd {
	dev := m.Device()
	line := m.input.Value()
	if line == "" || dev == nil {
		return nil
	}

	data, err := m.input.Payload()
	if err != nil {
		m.note(fmt.Sprintf("Invalid input: %v", err))
		return nil
	}
	if m.input.Mode() == components.SendASCII {
		data = append(data, '\n')
	}

	msg := m.Add(components.DataMsg{
		Timestamp: time.Now(),
		Data:      data,
		Dir:       components.TX,
		Status:    components.SendPending,
	})
	m.refresh()
	m.input.AddToHistory(line)
	m.input.SetValue("")

	timeout := m.sendTimeout
	parent := m.Context()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		_, err := dev.WriteContext(ctx, data)
		return sendResultMsg{id: msg.ID, err: err}
	}
}

type scroller interface {
	ScrollUp()
	ScrollDown()
	GotoTop()
	GotoBottom()
}

func (m *consoleModel) view() scroller {
	if m.showTable {
		return m.tableView
	}
	return m.logView
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - inputHeight - statusBarHeight - 1
		m.logView.SetSize(msg.Width, height)
		m.tableView.SetSize(msg.Width, height)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.SetReady(true)
		cmds = append(cmds, m.logView.Update(msg))
		m.refresh()

	case models.DeviceStatusMsg:
		if msg.Error != nil {
			m.SetErr(msg.Error)
			m.statusBar.SetClosed(msg.Error)
			m.note(fmt.Sprintf("Device error: %v", msg.Error))
		} else {
			m.statusBar.SetOpen()
			m.updateInfo()
		}

	case components.DataMsg:
		m.Add(msg)
		if m.IsReady() {
			m.refresh()
		}

	case sendResultMsg:
		status := components.SendDone
		if msg.err != nil {
			status = components.SendFailed
			if !errors.Is(msg.err, context.Canceled) {
				m.note(fmt.Sprintf("Send failed: %v", msg.err))
			}
		}
		if m.SetStatus(msg.id, status) {
			m.refresh()
		}

	case refreshMsg:
		m.updateInfo()
		cmds = append(cmds, refreshTick())

	case tea.KeyMsg:
		if m.IsInsert() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetMode(models.InputModeNormal)
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				return m, m.send()
			case key.Matches(msg, m.keys.Up):
				m.input.HistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.Down):
				m.input.HistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleMode()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Insert):
			m.SetMode(models.InputModeInsert)
			m.input.Focus()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ClearScreen):
			m.ClearTraffic()
			m.refresh()
		case key.Matches(msg, m.keys.Flush):
			if dev := m.Device(); dev != nil {
				if err := dev.Clear(); err != nil {
					m.note(fmt.Sprintf("Flush failed: %v", err))
				} else {
					m.updateInfo()
				}
			}
		case key.Matches(msg, m.keys.ToggleHex):
			m.formatter.ToggleHex()
			m.refresh()
		case key.Matches(msg, m.keys.ToggleASCII):
			m.formatter.ToggleASCII()
			m.refresh()
		case key.Matches(msg, m.keys.ToggleTable):
			m.showTable = !m.showTable
			m.refresh()
		case key.Matches(msg, m.keys.ToggleSendMode):
			m.input.ToggleMode()
		case key.Matches(msg, m.keys.Up):
			m.view().ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.view().ScrollDown()
		case key.Matches(msg, m.keys.GotoTop):
			m.view().GotoTop()
		case key.Matches(msg, m.keys.GotoBottom):
			m.view().GotoBottom()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *consoleModel) View() string {
	content := "Opening device..."
	if m.IsReady() {
		if m.showTable {
			content = m.tableView.View()
		} else {
			content = m.logView.View()
		}
	}
	if m.help.ShowAll {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.help.View(m.keys))
	}

	insert := m.IsInsert()
	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(content),
		m.input.View(insert),
		m.statusBar.View(insert, m.input.Mode(), time.Now().Format("15:04:05")),
	)
}
