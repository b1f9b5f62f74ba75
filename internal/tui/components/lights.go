package components

import (
	"fmt"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

const lampGlyph = "●"

// Lights draws one panel per road. The side road always shows the opposite
// of the main road.
type Lights struct {
	width int
}

func NewLights() *Lights {
	return &Lights{}
}

func (l *Lights) SetWidth(width int) {
	l.width = width
}

// Height returns the number of lines View renders
func (l *Lights) Height() int {
	return lipgloss.Height(l.View(trafficlight.LightRed, 0, false))
}

// View renders both roads for the reported state and the countdown
func (l *Lights) View(state trafficlight.Light, remaining int, active bool) string {
	main := l.road(trafficlight.RoadMain, state)
	side := l.road(trafficlight.RoadSide, state)

	countdown := "--"
	if active {
		countdown = fmt.Sprintf("%2ds", remaining)
	}
	timer := styles.CountdownStyle.Render("⏱ " + countdown)

	row := lipgloss.JoinHorizontal(lipgloss.Center, main, "  ", side, timer)
	if l.width > 0 {
		return lipgloss.PlaceHorizontal(l.width, lipgloss.Center, row)
	}
	return row
}

func (l *Lights) road(road trafficlight.Road, state trafficlight.Light) string {
	shown := road.LightFor(state)

	red := styles.LampStyle(trafficlight.LightRed, shown == trafficlight.LightRed).Render(lampGlyph)
	green := styles.LampStyle(trafficlight.LightGreen, shown == trafficlight.LightGreen).Render(lampGlyph)

	label := fmt.Sprintf("%s Road", road)
	body := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render(label),
		red,
		green,
		styles.LightStyle(shown).Render(shown.String()),
	)
	return styles.PanelStyle.Width(16).Render(body)
}
