package trafficlight

import (
	"time"

	"github.com/allbin/trafficlight/internal/serialport"
	"github.com/rs/zerolog"
)

// maxReadTimeout is the largest read timeout a serial port can express
const maxReadTimeout = 25500 * time.Millisecond

// Config holds the configuration for a Controller
type Config struct {
	BaudRate     int
	DataBits     int
	StopBits     int
	Parity       string // none, odd, even
	FlowControl  string // none, rtscts
	SyncWrite    bool   // Writes return once the bytes are transmitted
	ReadTimeout  time.Duration // Bounded read timeout on the serial port
	PollInterval time.Duration // Pause after a read that returned no data
	Observers    []Observer
	Logger       zerolog.Logger
	Clock        func() time.Time
}

// Option is a functional option for configuring a Controller
type Option func(*Config) error

// DefaultConfig returns the configuration used when no options are given
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		DataBits:     8,
		StopBits:     1,
		Parity:       "none",
		FlowControl:  "none",
		ReadTimeout:  100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		Logger:       zerolog.Nop(),
		Clock:        time.Now,
	}
}

// WithBaudRate sets the serial bit rate. The rate itself is validated when
// the port is opened.
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidConfig
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the character size (5 to 8 bits)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity: none, odd or even
func WithParity(parity string) Option {
	return func(c *Config) error {
		if _, err := serialport.ParseParity(parity); err != nil {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control: none or rtscts
func WithFlowControl(fc string) Option {
	return func(c *Config) error {
		if _, err := serialport.ParseFlowControl(fc); err != nil {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}

// WithSyncWrite makes writes block until the bytes have left the port
func WithSyncWrite(enabled bool) Option {
	return func(c *Config) error {
		c.SyncWrite = enabled
		return nil
	}
}

// WithReadTimeout sets how long a single read may block (100ms steps, at
// most 25.5s)
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > maxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithPollInterval sets the pause between empty reads
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval < 0 {
			return ErrInvalidConfig
		}
		c.PollInterval = interval
		return nil
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(obs Observer) Option {
	return func(c *Config) error {
		if obs == nil {
			return ErrInvalidConfig
		}
		c.Observers = append(c.Observers, obs)
		return nil
	}
}

// WithLogger sets the logger used for transport diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithClock overrides the clock used to timestamp events
func WithClock(clock func() time.Time) Option {
	return func(c *Config) error {
		if clock == nil {
			return ErrInvalidConfig
		}
		c.Clock = clock
		return nil
	}
}

// portOptions maps the link settings onto serial port options
func (c Config) portOptions() ([]serialport.Option, error) {
	parity, err := serialport.ParseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	fc, err := serialport.ParseFlowControl(c.FlowControl)
	if err != nil {
		return nil, err
	}

	opts := []serialport.Option{
		serialport.WithBaudRate(c.BaudRate),
		serialport.WithDataBits(c.DataBits),
		serialport.WithStopBits(c.StopBits),
		serialport.WithParity(parity),
		serialport.WithFlowControl(fc),
		serialport.WithReadTimeout(c.ReadTimeout),
	}
	if c.SyncWrite {
		opts = append(opts, serialport.WithSyncWrite())
	}
	return opts, nil
}
