package keys

import "github.com/charmbracelet/bubbles/key"

// MonitorKeys adds the override buttons for both roads
type MonitorKeys struct {
	CommonKeys
	MainRed   key.Binding
	MainGreen key.Binding
	SideRed   key.Binding
	SideGreen key.Binding
	Millis    key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		CommonKeys: NewCommonKeys(),
		MainRed: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "main red"),
		),
		MainGreen: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "main green"),
		),
		SideRed: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "side red"),
		),
		SideGreen: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "side green"),
		),
		Millis: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle ms"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.MainRed, k.MainGreen, k.Help, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.MainRed, k.MainGreen},
		{k.SideRed, k.SideGreen},
		{k.Clear, k.Millis},
		{k.Help, k.Quit},
	}
}
