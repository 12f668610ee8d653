// Package tui is the live `status --watch` dashboard. It re-collects the
// fleet every interval and renders the same report as the one-shot command.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fredericrous/qontrol/internal/model"
	"github.com/fredericrous/qontrol/internal/render"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true).
			PaddingLeft(1)
)

// CollectFunc produces one fleet snapshot.
type CollectFunc func(ctx context.Context) (*model.EnvironmentStatus, error)

type tickMsg time.Time

type envMsg struct {
	env *model.EnvironmentStatus
}

type errMsg struct{ err error }

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx      context.Context
	collect  CollectFunc
	interval time.Duration

	env       *model.EnvironmentStatus
	err       error
	loading   bool
	lastFetch time.Time
	width     int
	height    int
	offset    int
}

// New returns a dashboard that calls collect every interval.
func New(ctx context.Context, collect CollectFunc, interval time.Duration) Model {
	return Model{ctx: ctx, collect: collect, interval: interval, loading: true}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	ctx, collect := m.ctx, m.collect
	return func() tea.Msg {
		env, err := collect(ctx)
		if err != nil {
			return errMsg{err}
		}
		return envMsg{env}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		case "down", "j":
			m.offset++
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "home", "g":
			m.offset = 0
		}
		return m, nil

	case tickMsg:
		if m.loading {
			return m, m.tick()
		}
		m.loading = true
		return m, m.fetch()

	case envMsg:
		m.loading = false
		m.err = nil
		m.env = msg.env
		m.lastFetch = time.Now()
		return m, m.tick()

	case errMsg:
		// Keep showing the previous snapshot.
		m.loading = false
		m.err = msg.err
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	if m.env == nil {
		if m.err != nil {
			sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		} else {
			sb.WriteString("Collecting fleet status…")
		}
		sb.WriteString("\n")
		sb.WriteString(m.statusBar())
		return sb.String()
	}

	var report strings.Builder
	render.Status(&report, m.env)
	sb.WriteString(m.viewport(report.String()))
	sb.WriteString("\n")
	if m.width > 0 {
		sb.WriteString(strings.Repeat("─", m.width))
		sb.WriteString("\n")
	}
	if m.err != nil {
		sb.WriteString(errorStyle.Render("last refresh failed: " + m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.statusBar())
	return sb.String()
}

// viewport scrolls the report to offset and clips it to the window height.
func (m Model) viewport(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	offset := min(m.offset, max(len(lines)-1, 0))
	lines = lines[offset:]
	if m.height > 0 {
		avail := max(m.height-3, 1)
		if len(lines) > avail {
			lines = lines[:avail]
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusBar() string {
	parts := []string{fmt.Sprintf("every %s", m.interval)}
	if !m.lastFetch.IsZero() {
		parts = append(parts, "last refresh: "+m.lastFetch.Format("15:04:05"))
	}
	if m.loading {
		parts = append(parts, "refreshing…")
	}
	parts = append(parts, "q: quit  r: refresh  j/k: scroll")
	return statusBarStyle.Render(strings.Join(parts, "  |  "))
}

// Run starts the dashboard in the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, collect CollectFunc, interval time.Duration) error {
	p := tea.NewProgram(New(ctx, collect, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
