package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

const maxHistory = 8

type finder interface {
	Find(ctx context.Context, q service.Query) (nearest.Result, error)
}

type entry struct {
	at     time.Time
	result nearest.Result
}

type model struct {
	finder   finder // nil when following the sighting feed
	query    service.Query
	interval time.Duration
	source   string

	current *nearest.Result
	updated time.Time
	err     error
	history []entry
	width   int
}

type tickMsg time.Time

type resultMsg struct {
	at     time.Time
	result nearest.Result
	err    error
}

type sightingMsg sightings.Sighting

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) fetch() tea.Cmd {
	f, q, timeout := m.finder, m.query, m.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), max(timeout, 10*time.Second))
		defer cancel()
		res, err := f.Find(ctx, q)
		return resultMsg{at: time.Now(), result: res, err: err}
	}
}

func (m model) Init() tea.Cmd {
	if m.finder == nil {
		return nil
	}
	return tea.Batch(m.fetch(), tick(m.interval))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.finder != nil {
				return m, m.fetch()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick(m.interval))

	case resultMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.record(msg.at, msg.result)

	case sightingMsg:
		m.err = nil
		m.record(msg.RequestedAt, msg.Result)
	}

	return m, nil
}

// record makes res current and adds it to the history when the nearest
// aircraft changed.
func (m *model) record(at time.Time, res nearest.Result) {
	m.current = &res
	m.updated = at

	if n := len(m.history); n > 0 {
		last := m.history[n-1].result
		if last.Found == res.Found && last.Hex == res.Hex {
			m.history[n-1] = entry{at: at, result: res}
			return
		}
	}
	m.history = append(m.history, entry{at: at, result: res})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	flightStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	closingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NEAREST AIRCRAFT"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.source))
	b.WriteString("\n\n")

	switch {
	case m.current == nil && m.err == nil:
		b.WriteString(dimStyle.Render("Waiting for data..."))
		b.WriteString("\n")
	case m.current != nil:
		b.WriteString(cardStyle.Render(card(*m.current)))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Updated " + m.updated.Local().Format("15:04:05")))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if len(m.history) > 1 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Recent"))
		b.WriteString("\n")
		for i := len(m.history) - 1; i >= 0; i-- {
			e := m.history[i]
			line := fmt.Sprintf("  %s  %s", e.at.Local().Format("15:04:05"), summary(e.result))
			b.WriteString(dimStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := "q: quit"
	if m.finder != nil {
		help = "r: refresh  " + help
	}
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

func card(r nearest.Result) string {
	if !r.Found {
		return r.Message
	}

	var b strings.Builder
	b.WriteString(flightStyle.Render(r.Flight))
	b.WriteString("  " + r.Desc)
	if r.Registration != "" {
		b.WriteString(dimStyle.Render("  " + r.Registration))
	}
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Distance", fmt.Sprintf("%.1f %s", r.Distance, r.Unit.Label()))
	row("Bearing", fmt.Sprintf("%d° (%s)", r.Bearing, r.Ordinal))
	if r.AltitudeFt != nil {
		row("Altitude", fmt.Sprintf("%d ft", *r.AltitudeFt))
	}
	if r.GroundSpeed != nil {
		row("Speed", fmt.Sprintf("%d kts", *r.GroundSpeed))
	}
	if r.Track != nil {
		row("Heading", fmt.Sprintf("%d°", *r.Track))
	}
	if r.RelativeSpeed != nil {
		v := *r.RelativeSpeed
		switch {
		case v > 0:
			row("Closing", closingStyle.Render(fmt.Sprintf("%.1f kts", v)))
		case v < 0:
			row("Receding", fmt.Sprintf("%.1f kts", -v))
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func summary(r nearest.Result) string {
	if !r.Found {
		return "none in range"
	}
	return fmt.Sprintf("%-8s %.1f %s %s", r.Flight, r.Distance, r.Unit, r.Ordinal)
}
