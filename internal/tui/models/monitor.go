package models

import (
	"errors"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/components"
	"github.com/allbin/trafficlight/internal/tui/keys"
	"github.com/allbin/trafficlight/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errNotConnected = errors.New("not connected")

// Controller is the part of trafficlight.Controller the monitor drives
type Controller interface {
	Override(trafficlight.Light) error
	State() trafficlight.State
}

// ConnectionStatusMsg reports the outcome of opening the port, or the end
// of the read loop when Connected is false
type ConnectionStatusMsg struct {
	Connected  bool
	Controller Controller
	Error      error
}

// EventMsg carries an event from the controller's observer
type EventMsg struct {
	Event trafficlight.Event
}

// TickMsg advances the countdown started in generation Generation
type TickMsg struct {
	Generation uint64
}

// OverrideResultMsg reports a finished override write
type OverrideResultMsg struct {
	Road  trafficlight.Road
	Light trafficlight.Light
	Error error
}

// MonitorModel is the Bubble Tea model behind `trafficlight monitor`
type MonitorModel struct {
	ctrl      Controller
	state     trafficlight.State
	countdown *trafficlight.Countdown
	events    *trafficlight.EventLog

	lights    *components.Lights
	table     *components.EventTable
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.MonitorKeys

	tickInterval time.Duration
	now          func() time.Time
	lastErr      error
	ready        bool
	width        int
	height       int
}

// NewMonitorModel builds the model; the controller arrives later with a
// ConnectionStatusMsg.
func NewMonitorModel(portPath string, info *components.ConnectionInfo) *MonitorModel {
	statusBar := components.NewStatusBar(portPath)
	statusBar.SetConnectionInfo(info)

	return &MonitorModel{
		state:        trafficlight.State{Light: trafficlight.LightRed},
		countdown:    trafficlight.NewCountdown(trafficlight.DefaultCountdownDurations()),
		events:       trafficlight.NewEventLog(trafficlight.DefaultLogSize),
		lights:       components.NewLights(),
		table:        components.NewEventTable(0, 0),
		statusBar:    statusBar,
		help:         help.New(),
		keys:         keys.NewMonitorKeys(),
		tickInterval: time.Second,
		now:          time.Now,
	}
}

// SetTickInterval changes the countdown time unit
func (m *MonitorModel) SetTickInterval(d time.Duration) {
	m.tickInterval = d
}

func (m *MonitorModel) State() trafficlight.State {
	return m.state
}

func (m *MonitorModel) Countdown() *trafficlight.Countdown {
	return m.countdown
}

func (m *MonitorModel) Events() []trafficlight.Event {
	return m.events.Entries()
}

// LastError returns the last override or connection error
func (m *MonitorModel) LastError() error {
	return m.lastErr
}

func (m *MonitorModel) Init() tea.Cmd {
	return nil
}

func (m *MonitorModel) tick(generation uint64) tea.Cmd {
	return tea.Tick(m.tickInterval, func(time.Time) tea.Msg {
		return TickMsg{Generation: generation}
	})
}

func (m *MonitorModel) override(road trafficlight.Road, requested trafficlight.Light) tea.Cmd {
	ctrl := m.ctrl
	if ctrl == nil {
		m.lastErr = errNotConnected
		return nil
	}
	// the write and its OUT event must not run on the event loop
	return func() tea.Msg {
		err := ctrl.Override(road.OverrideFor(requested))
		return OverrideResultMsg{Road: road, Light: requested, Error: err}
	}
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case ConnectionStatusMsg:
		if msg.Connected {
			m.ctrl = msg.Controller
			if m.ctrl != nil {
				m.state = m.ctrl.State()
			}
			m.statusBar.SetConnected()
			m.lastErr = nil
		} else {
			m.statusBar.SetDisconnected(msg.Error)
			m.lastErr = msg.Error
		}
		return m, nil

	case EventMsg:
		m.events.Observe(msg.Event)
		m.table.SetEvents(m.events.Entries())
		if msg.Event.Direction == trafficlight.DirectionIn && msg.Event.Light.NeedsAck() {
			m.state = trafficlight.State{Light: msg.Event.Light, Since: msg.Event.Timestamp}
		}
		if m.countdown.Observe(msg.Event) {
			return m, m.tick(m.countdown.Generation())
		}
		return m, nil

	case TickMsg:
		if msg.Generation != m.countdown.Generation() {
			return m, nil
		}
		m.countdown.Tick()
		if m.countdown.Active() {
			return m, m.tick(msg.Generation)
		}
		return m, nil

	case OverrideResultMsg:
		m.lastErr = msg.Error
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.events.Clear()
			m.table.Clear()
			return m, nil
		case key.Matches(msg, m.keys.MainRed):
			return m, m.override(trafficlight.RoadMain, trafficlight.LightRed)
		case key.Matches(msg, m.keys.MainGreen):
			return m, m.override(trafficlight.RoadMain, trafficlight.LightGreen)
		case key.Matches(msg, m.keys.SideRed):
			return m, m.override(trafficlight.RoadSide, trafficlight.LightRed)
		case key.Matches(msg, m.keys.SideGreen):
			return m, m.override(trafficlight.RoadSide, trafficlight.LightGreen)
		case key.Matches(msg, m.keys.Millis):
			m.table.ToggleMillis()
			return m, nil
		}
	}

	_, cmd := m.table.Update(msg)
	return m, cmd
}

func (m *MonitorModel) resize() {
	m.lights.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width

	helpHeight := lipgloss.Height(m.help.View(m.keys))
	// status bar, error line and the content border
	tableHeight := m.height - m.lights.Height() - helpHeight - 3
	m.table.SetSize(m.width, tableHeight)
}

func (m *MonitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	errLine := ""
	if m.lastErr != nil {
		errLine = styles.ErrorStyle.Width(m.width).Render(m.lastErr.Error())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.lights.View(m.state.Light, m.countdown.Remaining(), m.countdown.Active()),
		styles.ContentBorderStyle.Render(m.table.View()),
		errLine,
		m.help.View(m.keys),
		m.statusBar.View(m.state, m.events.Len(), m.now()),
	)
}
