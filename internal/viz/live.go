package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bondsim/internal/md"
	"github.com/san-kum/bondsim/internal/particle"
	"github.com/san-kum/bondsim/internal/sim"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(0, 2)
)

type TickMsg time.Time

// Model drives a simulation interactively, a few steps per frame.
type Model struct {
	driver  *Driver
	running bool
	err     error
}

// Driver bundles what the live view needs from the wiring layer.
type Driver struct {
	Sim          *sim.Driver
	State        *particle.State
	Scenario     string
	StepsPerTick int

	warnings   int
	violations []float64
	lastReport md.Frame
}

func NewModel(d *Driver) Model {
	if d.StepsPerTick <= 0 {
		d.StepsPerTick = 10
	}
	return Model{driver: d, running: true}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}

	case TickMsg:
		if m.running && m.err == nil {
			if err := m.driver.advance(); err != nil {
				m.err = err
				m.running = false
			}
		}
		return m, tick()
	}

	return m, nil
}

func (d *Driver) advance() error {
	for i := 0; i < d.StepsPerTick; i++ {
		rep, err := d.Sim.Step()
		if err != nil {
			var warn *md.ConvergenceWarning
			if !errors.As(err, &warn) {
				return err
			}
			d.warnings++
		}
		if rep != nil {
			d.lastReport = md.Frame{
				Time:         d.Sim.Time(),
				Iterations:   rep.Iterations,
				MaxViolation: rep.MaxViolation,
				Converged:    rep.Converged,
			}
			d.violations = append(d.violations, rep.MaxViolation)
			if len(d.violations) > historyCapacity {
				d.violations = d.violations[1:]
			}
		}
	}
	return nil
}

func (m Model) View() string {
	d := m.driver

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("bondsim live: %s", d.Scenario)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	status := "running"
	if !m.running {
		status = "paused"
	}
	row("status", status)
	row("time", fmt.Sprintf("%.4f s", d.Sim.Time()))
	row("particles", fmt.Sprintf("%d", d.State.N))
	row("solver passes", fmt.Sprintf("%d", d.lastReport.Iterations))
	row("violation", fmt.Sprintf("%.3e", d.lastReport.MaxViolation))

	if d.warnings > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("convergence warnings: %d", d.warnings)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(warnStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(d.violations) > 1 {
		graph := asciigraph.Plot(d.violations, asciigraph.Height(8))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · q quit"))
	return panelStyle.Render(b.String())
}

// Run starts the live view and blocks until it exits.
func Run(d *Driver) error {
	p := tea.NewProgram(NewModel(d))
	_, err := p.Run()
	return err
}
