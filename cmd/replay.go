/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/capture"
	"github.com/allbin/trafficlight/internal/tui/components"
	"github.com/spf13/cobra"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Print the events of a capture file",
	Long: `Print the events recorded with "trafficlight run --capture".

Each event is printed as one line with its time, direction, light and the
raw bytes. A summary of the counts is printed at the end.

Example usage:
  trafficlight replay session.cbor
  trafficlight replay session.cbor --color --millis`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		color, _ := cmd.Flags().GetBool("color")
		millis, _ := cmd.Flags().GetBool("millis")

		if err := runReplay(args[0], os.Stdout, color, millis); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Bool("color", false, "Colorize the output")
	replayCmd.Flags().BoolP("millis", "m", false, "Show milliseconds in colored timestamps")
}

// replayStats counts the events of a replay
type replayStats struct {
	in, out     int
	red, green  int
	acks, other int
}

func (s *replayStats) add(ev trafficlight.Event) {
	if ev.Direction == trafficlight.DirectionIn {
		s.in++
	} else {
		s.out++
	}
	switch ev.Light {
	case trafficlight.LightRed:
		s.red++
	case trafficlight.LightGreen:
		s.green++
	case trafficlight.LightAck:
		s.acks++
	default:
		s.other++
	}
}

func runReplay(path string, out io.Writer, color, millis bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer file.Close()

	formatter := components.NewEventFormatter(millis)
	reader := capture.NewReader(file)
	var stats replayStats

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		ev, err := rec.Event()
		if err != nil {
			return err
		}
		stats.add(ev)

		if color {
			fmt.Fprintln(out, formatter.Line(ev))
		} else {
			fmt.Fprintln(out, trafficlight.FormatEvent(ev))
		}
	}

	fmt.Fprintf(out, "\n%d events: %d in, %d out (%d red, %d green, %d ack, %d unknown)\n",
		stats.in+stats.out, stats.in, stats.out, stats.red, stats.green, stats.acks, stats.other)
	return nil
}
