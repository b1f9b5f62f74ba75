package components

import (
	"fmt"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/colors"
	"github.com/allbin/trafficlight/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// EventFormatter renders the parts of an event shown in the event table
type EventFormatter struct {
	showMillis bool
}

func NewEventFormatter(showMillis bool) *EventFormatter {
	return &EventFormatter{showMillis: showMillis}
}

func (f *EventFormatter) ToggleMillis() {
	f.showMillis = !f.showMillis
}

func (f *EventFormatter) ShowsMillis() bool {
	return f.showMillis
}

func (f *EventFormatter) Timestamp(ev trafficlight.Event) string {
	if f.showMillis {
		return ev.Timestamp.Format("15:04:05.000")
	}
	return ev.Timestamp.Format("15:04:05")
}

// Direction returns the arrow and label for the event direction
func (f *EventFormatter) Direction(ev trafficlight.Event) string {
	if ev.Direction == trafficlight.DirectionOut {
		return "↗ OUT"
	}
	return "↙ IN"
}

func (f *EventFormatter) DirectionStyle(ev trafficlight.Event) lipgloss.Style {
	if ev.Direction == trafficlight.DirectionOut {
		return lipgloss.NewStyle().Foreground(colors.Peach).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colors.Sky).Bold(true)
}

func (f *EventFormatter) LightStyle(ev trafficlight.Event) lipgloss.Style {
	return styles.LightStyle(ev.Light)
}

func (f *EventFormatter) Data(ev trafficlight.Event) string {
	return trafficlight.HexData(ev.Data)
}

// Line renders the event as a single styled line
func (f *EventFormatter) Line(ev trafficlight.Event) string {
	ts := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", f.Timestamp(ev)))
	return fmt.Sprintf("%s %s %s %s",
		ts,
		f.DirectionStyle(ev).Render(f.Direction(ev)),
		f.LightStyle(ev).Render(ev.Light.String()),
		f.Data(ev))
}
