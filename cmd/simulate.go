/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/allbin/trafficlight/internal/device"
	"github.com/allbin/trafficlight/internal/serialport"
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <port>",
	Short: "Act as the traffic light controller on a serial port",
	Long: `Act as the traffic light controller on a serial port.

The simulated board cycles RED (10s) and GREEN (6s). Each phase is announced
with its frame, resent until acknowledged with 0xAC. The override bytes 0x00
and 0x01 force RED and GREEN.

Pair it with the supervisor over a virtual null-modem cable:
  socat -d -d pty,raw,echo=0 pty,raw,echo=0
  trafficlight simulate /dev/pts/3
  trafficlight monitor /dev/pts/4`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := device.DefaultConfig()
		config.ResendInterval, _ = cmd.Flags().GetDuration("resend")
		config.RedHold, _ = cmd.Flags().GetDuration("red-hold")
		config.GreenHold, _ = cmd.Flags().GetDuration("green-hold")

		if err := runSimulator(args[0], config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	defaults := device.DefaultConfig()
	simulateCmd.Flags().Duration("resend", defaults.ResendInterval, "Interval between unacknowledged frames")
	simulateCmd.Flags().Duration("red-hold", defaults.RedHold, "How long RED stays on")
	simulateCmd.Flags().Duration("green-hold", defaults.GreenHold, "How long GREEN stays on")
}

func runSimulator(portPath string, config device.Config) error {
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	config.Logger = logger.With().Str("port", portPath).Logger()

	dev, err := device.New(config)
	if err != nil {
		return err
	}

	opts, err := portOptions()
	if err != nil {
		return err
	}
	port, err := serialport.Open(portPath, opts...)
	if err != nil {
		return err
	}
	defer port.Close()

	// A freshly reset board starts with empty UART buffers
	if err := port.FlushInput(); err != nil {
		return err
	}
	if err := port.FlushOutput(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.Logger.Info().Msg("simulating controller")
	return dev.Run(ctx, port)
}
