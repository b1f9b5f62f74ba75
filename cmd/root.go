/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/allbin/trafficlight/internal/serialport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trafficlight",
	Short: "Supervise a two-road traffic light controller over serial",
	Long: `Supervise a two-road traffic light controller over a serial link.

The controller announces RED and GREEN with CRC-checked 8-byte frames and
expects every valid frame to be acknowledged. This tool acknowledges the
frames, tracks the light, and can force either light with an override.

Configuration is read from flags, TRAFFICLIGHT_* environment variables and
$HOME/.trafficlight.yaml, in that order of precedence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trafficlight.yaml)")
	flags.IntP("baud", "b", 115200, "Baud rate")
	flags.Int("data-bits", 8, "Data bits: 5, 6, 7, 8")
	flags.String("parity", "none", "Parity: none, odd, even")
	flags.Int("stop-bits", 1, "Stop bits: 1, 2")
	flags.String("flow-control", "none", "Flow control: none, rtscts")
	flags.Bool("sync-write", false, "Block writes until the bytes are transmitted")
	flags.Duration("read-timeout", 100*time.Millisecond, "Serial read timeout (100ms steps)")
	flags.Duration("poll-interval", 10*time.Millisecond, "Pause after an empty read")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Write logs to this file instead of stderr")

	for _, name := range []string{"baud", "data-bits", "parity", "stop-bits", "flow-control", "sync-write", "read-timeout", "poll-interval", "log-level", "log-file"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}
	viper.SetDefault("port", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".trafficlight")
	}

	viper.SetEnvPrefix("TRAFFICLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the logger for a command. Without a log file, logs go
// to fallback, which may be io.Discard for full-screen commands.
func newLogger(fallback io.Writer) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level: %w", err)
	}

	closer := func() {}
	var out io.Writer
	if path := viper.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = func() { closeLogFile(f, os.Stderr) }
	} else {
		out = zerolog.ConsoleWriter{Out: fallback, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// resolvePort picks the port from the arguments, the configuration, or
// the first serial port found
func resolvePort(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if port := viper.GetString("port"); port != "" {
		return port, nil
	}
	port, err := serialport.DefaultPort()
	if err != nil {
		return "", fmt.Errorf("no port given and none found: %w", err)
	}
	return port, nil
}

// controllerOptions maps the configuration onto controller options
func controllerOptions(logger zerolog.Logger) []trafficlight.Option {
	return []trafficlight.Option{
		trafficlight.WithBaudRate(viper.GetInt("baud")),
		trafficlight.WithDataBits(viper.GetInt("data-bits")),
		trafficlight.WithStopBits(viper.GetInt("stop-bits")),
		trafficlight.WithParity(viper.GetString("parity")),
		trafficlight.WithFlowControl(viper.GetString("flow-control")),
		trafficlight.WithSyncWrite(viper.GetBool("sync-write")),
		trafficlight.WithReadTimeout(viper.GetDuration("read-timeout")),
		trafficlight.WithPollInterval(viper.GetDuration("poll-interval")),
		trafficlight.WithLogger(logger),
	}
}

// portOptions maps the configuration onto serial port options for commands
// that drive the port directly
func portOptions() ([]serialport.Option, error) {
	parity, err := serialport.ParseParity(viper.GetString("parity"))
	if err != nil {
		return nil, err
	}
	fc, err := serialport.ParseFlowControl(viper.GetString("flow-control"))
	if err != nil {
		return nil, err
	}

	opts := []serialport.Option{
		serialport.WithBaudRate(viper.GetInt("baud")),
		serialport.WithDataBits(viper.GetInt("data-bits")),
		serialport.WithStopBits(viper.GetInt("stop-bits")),
		serialport.WithParity(parity),
		serialport.WithFlowControl(fc),
		serialport.WithReadTimeout(viper.GetDuration("read-timeout")),
	}
	if viper.GetBool("sync-write") {
		opts = append(opts, serialport.WithSyncWrite())
	}
	return opts, nil
}

// framing renders the configured character framing as in 8N1
func framing() string {
	parity, err := serialport.ParseParity(viper.GetString("parity"))
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%d%s%d", viper.GetInt("data-bits"), parity.Letter(), viper.GetInt("stop-bits"))
}

// closeLogFile closes the log file, reporting a failure to errOut since
// the logger can no longer be trusted with it
func closeLogFile(f io.Closer, errOut io.Writer) {
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "Error: closing log file: %v\n", err)
	}
}
