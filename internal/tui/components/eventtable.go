package components

import (
	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/colors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyTime      = "time"
	columnKeyDirection = "direction"
	columnKeyLight     = "light"
	columnKeyData      = "data"

	// header row, its separator and the top and bottom borders
	tableChromeHeight = 4
)

// EventTable lists events newest first
type EventTable struct {
	table     table.Model
	formatter *EventFormatter
	events    []trafficlight.Event
	width     int
	height    int
}

func NewEventTable(width, height int) *EventTable {
	et := &EventTable{
		formatter: NewEventFormatter(false),
	}
	et.table = et.build()
	et.SetSize(width, height)
	return et
}

func (et *EventTable) columns() []table.Column {
	timeWidth := 10
	if et.formatter.ShowsMillis() {
		timeWidth = 14
	}
	return []table.Column{
		table.NewColumn(columnKeyTime, "Time", timeWidth),
		table.NewColumn(columnKeyDirection, "↕", 7),
		table.NewColumn(columnKeyLight, "Light", 9),
		table.NewFlexColumn(columnKeyData, "Data", 1),
	}
}

func (et *EventTable) build() table.Model {
	return table.New(et.columns()).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Foreground(colors.Text).Bold(true)).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Subtext1).
			BorderForeground(colors.Surface2).
			Align(lipgloss.Left)).
		WithFooterVisibility(false).
		Focused(true)
}

func (et *EventTable) SetSize(width, height int) {
	if width < 40 {
		width = 40
	}
	pageSize := height - tableChromeHeight
	if pageSize < 1 {
		pageSize = 1
	}
	et.width, et.height = width, height
	et.table = et.table.
		WithTargetWidth(width).
		WithPageSize(pageSize)
}

// SetEvents replaces the rows with events, given oldest first
func (et *EventTable) SetEvents(events []trafficlight.Event) {
	et.events = events
	et.refresh()
}

func (et *EventTable) refresh() {
	rows := make([]table.Row, 0, len(et.events))
	for i := len(et.events) - 1; i >= 0; i-- {
		rows = append(rows, et.row(et.events[i]))
	}
	et.table = et.table.WithRows(rows)
}

func (et *EventTable) row(ev trafficlight.Event) table.Row {
	return table.NewRow(table.RowData{
		columnKeyTime:      et.formatter.Timestamp(ev),
		columnKeyDirection: table.NewStyledCell(et.formatter.Direction(ev), et.formatter.DirectionStyle(ev)),
		columnKeyLight:     table.NewStyledCell(ev.Light.String(), et.formatter.LightStyle(ev)),
		columnKeyData:      et.formatter.Data(ev),
	})
}

// Len returns the number of rows
func (et *EventTable) Len() int {
	return len(et.events)
}

func (et *EventTable) Clear() {
	et.events = nil
	et.table = et.table.WithRows(nil)
}

// ToggleMillis switches the time column between seconds and milliseconds
func (et *EventTable) ToggleMillis() {
	et.formatter.ToggleMillis()
	et.table = et.table.WithColumns(et.columns())
	et.refresh()
}

func (et *EventTable) Init() tea.Cmd {
	return nil
}

// Update forwards navigation keys to the table
func (et *EventTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	et.table, cmd = et.table.Update(msg)
	return et, cmd
}

func (et *EventTable) View() string {
	return et.table.View()
}
