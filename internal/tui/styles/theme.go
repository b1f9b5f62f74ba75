package styles

import (
	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Padding(0, 1)

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	StatusConnectingStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	// Road panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 2).
			Align(lipgloss.Center)

	CountdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Yellow).
			Padding(0, 2)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Align(lipgloss.Center)
)

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusConnected:
		return StatusConnectedStyle
	case StatusConnecting:
		return StatusConnectingStyle
	default:
		return StatusDisconnectedStyle
	}
}

// LightStyle colors text by light classification
func LightStyle(light trafficlight.Light) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch light {
	case trafficlight.LightRed:
		return style.Foreground(colors.Red)
	case trafficlight.LightGreen:
		return style.Foreground(colors.Green)
	case trafficlight.LightAck:
		return style.Foreground(colors.Blue)
	default:
		return style.Foreground(colors.Overlay0)
	}
}

// LampStyle renders a single lamp, lit or dark
func LampStyle(light trafficlight.Light, lit bool) lipgloss.Style {
	color := colors.LampRedDim
	switch {
	case light == trafficlight.LightRed && lit:
		color = colors.LampRed
	case light == trafficlight.LightGreen && lit:
		color = colors.LampGreen
	case light == trafficlight.LightGreen:
		color = colors.LampGreenDim
	}
	return lipgloss.NewStyle().Foreground(color).Bold(lit)
}

// LightBadgeStyle is used for the state section of the status bar
func LightBadgeStyle(light trafficlight.Light) lipgloss.Style {
	bg := colors.Overlay0
	switch light {
	case trafficlight.LightRed:
		bg = colors.Red
	case trafficlight.LightGreen:
		bg = colors.Green
	}
	return lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(bg).
		Bold(true).
		Padding(0, 1)
}
