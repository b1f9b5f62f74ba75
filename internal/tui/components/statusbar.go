package components

import (
	"fmt"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/colors"
	"github.com/allbin/trafficlight/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is the link configuration shown on the right of the bar
type ConnectionInfo struct {
	BaudRate int
	Framing  string // e.g. 8N1
}

type StatusBar struct {
	portPath       string
	status         styles.StatusType
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{
		portPath: portPath,
		status:   styles.StatusConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetConnecting() {
	sb.status = styles.StatusConnecting
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.status = styles.StatusDisconnected
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	}
}

// Err returns the error that ended the connection, if any
func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) indicator() string {
	glyph := "○"
	switch sb.status {
	case styles.StatusConnected:
		glyph = "●"
	case styles.StatusError:
		glyph = "✗"
	}
	return styles.GetStatusStyle(sb.status).Padding(0, 1).Render(glyph)
}

// View renders the status bar: the current light, the port with its
// connection indicator, the link settings, the event count and the clock.
func (sb *StatusBar) View(state trafficlight.State, events int, now time.Time) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	badge := styles.LightBadgeStyle(state.Light).Render(state.Light.String())

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	since := ""
	if !state.Since.IsZero() {
		since = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Padding(0, 1).
			Render("since " + state.Since.Format("15:04:05"))
	}

	info := "⚡ serial"
	if sb.connectionInfo != nil {
		framing := sb.connectionInfo.Framing
		if framing == "" {
			framing = "8N1"
		}
		info = fmt.Sprintf("⚡ %d baud %s", sb.connectionInfo.BaudRate, framing)
	}
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("%s │ %d events", info, events))

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(now.Format("15:04:05"))

	left := lipgloss.JoinHorizontal(lipgloss.Left, badge, port, sb.indicator(), since, divider)
	right := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}
