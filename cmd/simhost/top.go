package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/simhost/sched"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	defunctStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))
)

// processTable is the part of the scheduler the monitor drives.
type processTable interface {
	List() ([]sched.Row, error)
	Clear() (int, error)
	Kill(n int) error
	Slots() int
}

type topKeys struct {
	Up      key.Binding
	Down    key.Binding
	Kill    key.Binding
	Clear   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k topKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Kill, k.Clear, k.Refresh, k.Quit}
}

func (k topKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultTopKeys = topKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Kill:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "interrupt")),
	Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear defunct")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type topModel struct {
	err      error
	procs    processTable
	loc      *time.Location
	keys     topKeys
	help     help.Model
	grid     table.Model
	status   string
	rows     []sched.Row
	interval time.Duration
}

func newTopModel(procs processTable, loc *time.Location, interval time.Duration) *topModel {
	grid := table.New(
		table.WithColumns([]table.Column{
			{Title: "PROC", Width: 4},
			{Title: "PID", Width: 7},
			{Title: "STATE", Width: 8},
			{Title: "CLOCK", Width: 24},
			{Title: "COMMAND", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(procs.Slots()+1),
	)
	return &topModel{
		procs:    procs,
		loc:      loc,
		keys:     defaultTopKeys,
		help:     help.New(),
		grid:     grid,
		interval: interval,
	}
}

type tickMsg time.Time

type listedMsg struct {
	err  error
	rows []sched.Row
}

type actionMsg struct {
	err    error
	status string
}

func (m *topModel) Init() tea.Cmd {
	return tea.Batch(m.list, m.tick())
}

func (m *topModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *topModel) list() tea.Msg {
	rows, err := m.procs.List()
	return listedMsg{rows: rows, err: err}
}

func (m *topModel) kill(n int) tea.Cmd {
	return func() tea.Msg {
		if err := m.procs.Kill(n); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("interrupt sent to processor %d", n)}
	}
}

func (m *topModel) clear() tea.Msg {
	n, err := m.procs.Clear()
	if err != nil {
		return actionMsg{err: err}
	}
	return actionMsg{status: fmt.Sprintf("%d defunct processes cleared", n)}
}

func (m *topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Kill):
			row := m.grid.SelectedRow()
			if row == nil {
				return m, nil
			}
			n, err := strconv.Atoi(strings.TrimSpace(row[0]))
			if err != nil {
				return m, nil
			}
			return m, m.kill(n)
		case key.Matches(msg, m.keys.Clear):
			return m, m.clear
		case key.Matches(msg, m.keys.Refresh):
			return m, m.list
		}

	case tickMsg:
		return m, tea.Batch(m.list, m.tick())

	case listedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.grid.SetRows(m.tableRows())
		}
		return m, nil

	case actionMsg:
		m.err = msg.err
		m.status = msg.status
		return m, m.list
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return m, cmd
}

func (m *topModel) tableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.PID),
			r.State(),
			r.Clock(m.loc),
			r.Command,
		})
	}
	return rows
}

func (m *topModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("simhost top"))
	fmt.Fprintf(&b, " %d of %d processors in use", len(m.rows), m.procs.Slots())
	if n := m.defunct(); n > 0 {
		b.WriteString(" ")
		b.WriteString(defunctStyle.Render(fmt.Sprintf("(%d defunct)", n)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.grid.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *topModel) defunct() int {
	n := 0
	for _, r := range m.rows {
		if r.Defunct {
			n++
		}
	}
	return n
}

func newTopCommand(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Monitor the host process table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			s := rt.Scheduler()
			if err := s.Attach(); err != nil {
				return err
			}
			p := tea.NewProgram(newTopModel(s, s.Location(), interval), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "refresh interval")
	return cmd
}
