/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/tui/components"
	"github.com/allbin/trafficlight/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [port]",
	Short: "Watch and override the traffic light in a terminal UI",
	Long: `Watch and override the traffic light in a terminal UI.

Shows both roads (the side road always shows the opposite of the main road),
a countdown restarted by every RED or GREEN frame, and the last 100 events.

Keys:
  r / g   force the main road to RED / GREEN
  R / G   force the side road to RED / GREEN
  c       clear the event log
  t       toggle millisecond timestamps
  ?       toggle help
  q       quit

Example usage:
  trafficlight monitor /dev/ttyUSB0
  trafficlight monitor --baud 9600 --log-file monitor.log`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath, err := resolvePort(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runMonitorTUI(portPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitorTUI(portPath string) error {
	// stderr belongs to the TUI, only log when a file is configured
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	m := models.NewMonitorModel(portPath, &components.ConnectionInfo{
		BaudRate: viper.GetInt("baud"),
		Framing:  framing(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect in the background so the UI comes up immediately
	connected := make(chan struct{})
	go func() {
		defer close(connected)

		opts := append(controllerOptions(logger), trafficlight.WithObserver(func(ev trafficlight.Event) {
			p.Send(models.EventMsg{Event: ev})
		}))
		ctrl, err := trafficlight.Open(portPath, opts...)
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			return
		}
		defer ctrl.Close()

		p.Send(models.ConnectionStatusMsg{Connected: true, Controller: ctrl})

		select {
		case <-ctrl.Done():
			if err := ctrl.Err(); err != nil {
				p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			}
			<-ctx.Done()
		case <-ctx.Done():
		}
	}()

	_, err = p.Run()

	cancel()
	<-connected
	return err
}
