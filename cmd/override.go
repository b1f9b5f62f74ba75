/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/spf13/cobra"
)

// overrideCmd represents the override command
var overrideCmd = &cobra.Command{
	Use:   "override <red|green> [port]",
	Short: "Force the traffic light to RED or GREEN",
	Long: `Force the traffic light to RED or GREEN with a single override byte.

The light applies to the main road unless --road side is given; the side
road always shows the opposite, so a side-road GREEN sends RED.

With --wait the command stays connected until the controller reports the
requested light (acknowledging it) or the timeout expires.

Example usage:
  trafficlight override green /dev/ttyUSB0
  trafficlight override red --road side
  trafficlight override green --wait 2s`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		requested, err := trafficlight.ParseLight(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		roadName, _ := cmd.Flags().GetString("road")
		road, err := parseRoad(roadName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		portPath, err := resolvePort(args[1:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		wait, _ := cmd.Flags().GetDuration("wait")
		if err := runOverride(portPath, road, requested, wait); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(overrideCmd)

	overrideCmd.Flags().String("road", "main", "Road the light applies to: main, side")
	overrideCmd.Flags().Duration("wait", 0, "Wait this long for the controller to report the light (0 = don't wait)")
}

func parseRoad(name string) (trafficlight.Road, error) {
	switch strings.ToLower(name) {
	case "main", "":
		return trafficlight.RoadMain, nil
	case "side":
		return trafficlight.RoadSide, nil
	default:
		return trafficlight.RoadMain, fmt.Errorf("unknown road %q (valid: main, side)", name)
	}
}

func runOverride(portPath string, road trafficlight.Road, requested trafficlight.Light, wait time.Duration) error {
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	light := road.OverrideFor(requested)
	confirmed := make(chan struct{})
	var once sync.Once

	opts := append(controllerOptions(logger), trafficlight.WithObserver(func(ev trafficlight.Event) {
		if ev.Direction == trafficlight.DirectionIn && ev.Light == light {
			once.Do(func() { close(confirmed) })
		}
	}))

	ctrl, err := trafficlight.Open(portPath, opts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Override(light); err != nil {
		return err
	}
	fmt.Printf("Sent %s override to %s (%s road %s)\n", light, portPath, road, requested)

	if wait <= 0 {
		return nil
	}

	select {
	case <-confirmed:
		fmt.Printf("Controller reports %s\n", light)
		return nil
	case <-ctrl.Done():
		return ctrl.Err()
	case <-time.After(wait):
		return fmt.Errorf("controller did not report %s within %s", light, wait)
	}
}
