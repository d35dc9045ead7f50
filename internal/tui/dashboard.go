package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/monitor"
)

// Poller runs an immediate poll, used by the refresh key.
type Poller interface {
	PollFootprint(ctx context.Context) monitor.Update
	PollEmissions(ctx context.Context) monitor.Update
}

// KeyMap holds the dashboard key bindings.
type KeyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Details key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Details: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "equivalents"),
		),
	}
}

type updateMsg monitor.Update

type feedClosedMsg struct{}

// DashboardModel is the live monitoring view.
type DashboardModel struct {
	ctx     context.Context
	updates <-chan monitor.Update
	poller  Poller
	keys    KeyMap
	spinner spinner.Model

	vehicle estimator.VehicleType
	tr      estimator.TimeRange

	footprint  *monitor.Update
	emissions  *monitor.Update
	showDetail bool
	closed     bool
	quitting   bool

	width int
}

// NewDashboardModel builds a model reading from updates. poller may be nil,
// which disables the refresh key.
func NewDashboardModel(
	ctx context.Context,
	updates <-chan monitor.Update,
	poller Poller,
	vehicle estimator.VehicleType,
	tr estimator.TimeRange,
) *DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorHeader)
	return &DashboardModel{
		ctx:     ctx,
		updates: updates,
		poller:  poller,
		keys:    DefaultKeyMap(),
		spinner: s,
		vehicle: vehicle,
		tr:      tr,
		width:   80,
	}
}

// Init starts the spinner and the update listener.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

func (m *DashboardModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return feedClosedMsg{}
		}
		return updateMsg(u)
	}
}

func (m *DashboardModel) refresh() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	ctx, p := m.ctx, m.poller
	return tea.Batch(
		func() tea.Msg { return updateMsg(p.PollFootprint(ctx)) },
		func() tea.Msg { return updateMsg(p.PollEmissions(ctx)) },
	)
}

// Update handles key presses, monitor updates and spinner ticks.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		case key.Matches(msg, m.keys.Details):
			m.showDetail = !m.showDetail
		}
		return m, nil

	case updateMsg:
		u := monitor.Update(msg)
		m.apply(u)
		return m, m.waitForUpdate()

	case feedClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply keeps the newest update per kind. A footprint poll without a result
// keeps the footprint already shown.
func (m *DashboardModel) apply(u monitor.Update) {
	switch u.Kind {
	case monitor.KindFootprint:
		if m.footprint != nil && m.footprint.At.After(u.At) {
			return
		}
		m.footprint = &u
	case monitor.KindEmissions:
		if m.emissions != nil && m.emissions.At.After(u.At) {
			return
		}
		m.emissions = &u
	}
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.quitting {
		return ""
	}
	var sections []string
	sections = append(sections, RenderTitle("EcoDetect Monitor"))

	if m.footprint == nil && m.emissions == nil {
		sections = append(sections, m.spinner.View()+" waiting for first readings...")
		return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
	}

	panelWidth := max(m.width/2-2, 30)
	var left, right string
	if m.footprint != nil {
		left = RenderFootprint(m.footprint.Footprint, m.footprint.Fresh) + "\n\n" +
			RenderBreaches(m.footprint.Breaches)
	} else {
		left = m.spinner.View() + " polling footprint"
	}
	if m.emissions != nil && m.emissions.Emissions != nil {
		right = RenderEmissions(*m.emissions.Emissions, m.vehicle, m.tr)
	} else {
		right = m.spinner.View() + " polling emissions"
	}
	panel := panelStyle.Width(panelWidth)
	if m.width >= 2*panelWidth+4 {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, panel.Render(left), panel.Render(right)))
	} else {
		sections = append(sections, panel.Render(left), panel.Render(right))
	}

	if m.showDetail && m.emissions != nil && m.emissions.Emissions != nil {
		sections = append(sections, panel.Render(RenderEquivalents(m.emissions.Emissions.Result.TotalCO2Kg)))
	}

	sections = append(sections, m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m *DashboardModel) statusLine() string {
	var parts []string
	if m.footprint != nil {
		parts = append(parts, "footprint "+m.footprint.At.Format(time.TimeOnly))
	}
	if m.emissions != nil {
		parts = append(parts, "emissions "+m.emissions.At.Format(time.TimeOnly))
	}
	failures := 0
	if m.footprint != nil {
		failures += len(m.footprint.Failures)
	}
	if m.emissions != nil {
		failures += len(m.emissions.Failures)
	}
	if failures > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorWarning).Render(
			IconWarning+" backend partially unavailable"))
	}
	if m.closed {
		parts = append(parts, "monitor stopped")
	}

	help := []string{}
	for _, b := range []key.Binding{m.keys.Refresh, m.keys.Details, m.keys.Quit} {
		if m.poller == nil && b.Help().Key == m.keys.Refresh.Help().Key {
			continue
		}
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}
	return mutedStyle.Render(strings.Join(parts, " | ")) + "\n" + mutedStyle.Render(strings.Join(help, " • "))
}
