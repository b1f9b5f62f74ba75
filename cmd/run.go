/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/broadcast"
	"github.com/allbin/trafficlight/internal/capture"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [port]",
	Short: "Supervise the controller without a UI",
	Long: `Supervise the controller without a UI, logging every event.

Frames are acknowledged exactly as in the monitor. Events can additionally
be recorded to a CBOR capture file and pushed to WebSocket clients as JSON.
Runs until interrupted (Ctrl+C) or until the serial link fails.

Example usage:
  trafficlight run /dev/ttyUSB0
  trafficlight run /dev/ttyUSB0 --capture session.cbor
  trafficlight run --ws-listen :8080`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath, err := resolvePort(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runSupervisor(portPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("capture", "c", "", "Append events to this CBOR capture file")
	runCmd.Flags().String("ws-listen", "", "Serve events over WebSocket on this address (path /ws)")
	cobra.CheckErr(viper.BindPFlag("capture", runCmd.Flags().Lookup("capture")))
	cobra.CheckErr(viper.BindPFlag("ws-listen", runCmd.Flags().Lookup("ws-listen")))
}

func logEvent(logger zerolog.Logger) trafficlight.Observer {
	return func(ev trafficlight.Event) {
		logger.Info().
			Str("direction", ev.Direction.String()).
			Str("light", ev.Light.String()).
			Str("data", trafficlight.HexData(ev.Data)).
			Msg("event")
	}
}

// shutdowner is the part of http.Server used to stop it
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// stopBroadcast disconnects the websocket clients and stops the listener
func stopBroadcast(logger zerolog.Logger, hub io.Closer, srv shutdowner, timeout time.Duration) {
	if err := hub.Close(); err != nil {
		logger.Warn().Err(err).Msg("websocket hub close failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("websocket server shutdown failed")
	}
}

func runSupervisor(portPath string) error {
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logger.With().Str("port", portPath).Logger()

	opts := append(controllerOptions(logger), trafficlight.WithObserver(logEvent(logger)))

	if path := viper.GetString("capture"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open capture file: %w", err)
		}
		defer f.Close()

		recorder := capture.NewWriter(f)
		opts = append(opts, trafficlight.WithObserver(recorder.Observe))
		defer func() {
			if err := recorder.Err(); err != nil {
				logger.Error().Err(err).Str("file", path).Msg("capture incomplete")
				return
			}
			logger.Info().Int("records", recorder.Count()).Str("file", path).Msg("capture written")
		}()
	}

	var hub *broadcast.Hub
	if addr := viper.GetString("ws-listen"); addr != "" {
		hub = broadcast.NewHub(logger)
		opts = append(opts, trafficlight.WithObserver(hub.Observe))

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", addr).Msg("websocket server failed")
			}
		}()
		defer stopBroadcast(logger, hub, srv, 2*time.Second)
		logger.Info().Str("addr", addr).Msg("serving events on /ws")
	}

	ctrl, err := trafficlight.Open(portPath, opts...)
	if err != nil {
		return err
	}
	if hub != nil {
		hub.SetState(ctrl.State())
	}
	logger.Info().Msg("supervising controller")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case <-ctrl.Done():
	}

	if err := ctrl.Close(); err != nil {
		logger.Warn().Err(err).Msg("close failed")
	}
	return ctrl.Err()
}
