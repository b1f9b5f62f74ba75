package trafficlight

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/allbin/trafficlight/internal/serialport"
	"github.com/rs/zerolog"
)

// drainer is implemented by connections that can wait for pending output
type drainer interface {
	Drain() error
}

// outputFlusher is implemented by connections that can discard pending output
type outputFlusher interface {
	FlushOutput() error
}

// Controller owns the connection to the device, the current light state and
// the observers that are told about every event.
type Controller struct {
	conn      io.ReadWriteCloser
	reader    *Reader
	writer    *Writer
	observers []Observer
	logger    zerolog.Logger

	state atomic.Pointer[State]

	cancel context.CancelFunc
	done   chan struct{}
	err    error // read loop result, valid once done is closed

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial port and starts supervising the device on it.
// A port that cannot be opened is reported immediately and not retried.
func Open(port string, opts ...Option) (*Controller, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	portOpts, err := config.portOptions()
	if err != nil {
		return nil, err
	}
	conn, err := serialport.Open(port, portOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", port, err)
	}

	// Bytes queued before we opened may hold the tail of a frame
	if err := conn.FlushInput(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", port, err)
	}

	config.Logger = config.Logger.With().Str("port", port).Logger()
	return newController(conn, config), nil
}

// New starts supervising an already open connection. Reads on conn should
// return within a bounded time so Close is observed promptly.
func New(conn io.ReadWriteCloser, opts ...Option) (*Controller, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newController(conn, config), nil
}

func buildConfig(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

func newController(conn io.ReadWriteCloser, config Config) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		conn:      conn,
		observers: config.Observers,
		logger:    config.Logger,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.state.Store(&State{Light: LightRed, Since: config.Clock()})

	w := newWire(conn)
	c.writer = &Writer{
		wire: w,
		emit: c.onEvent,
		now:  config.Clock,
	}
	c.reader = &Reader{
		conn:         conn,
		wire:         w,
		emit:         c.onEvent,
		now:          config.Clock,
		pollInterval: config.PollInterval,
		logger:       config.Logger,
	}

	go c.run(ctx)
	return c
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	c.logger.Debug().Msg("read loop started")
	c.err = c.reader.Run(ctx)
	if c.err != nil {
		c.logger.Error().Err(c.err).Msg("read loop stopped")
		return
	}
	c.logger.Debug().Msg("read loop stopped")
}

// onEvent is the single writer of the light state
func (c *Controller) onEvent(ev Event) {
	if ev.Direction == DirectionIn && ev.Light.NeedsAck() {
		c.state.Store(&State{Light: ev.Light, Since: ev.Timestamp})
	}
	for _, obs := range c.observers {
		obs(ev)
	}
}

// State returns the current light state snapshot
func (c *Controller) State() State {
	return *c.state.Load()
}

// Buffered returns the number of received bytes waiting for a full frame
func (c *Controller) Buffered() int {
	return c.reader.Buffered()
}

// Override asks the device to switch to light (RED or GREEN)
func (c *Controller) Override(light Light) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.SendOverride(light)
}

// Done is closed when the read loop has exited
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns why the read loop exited, or nil if it is still running or
// was stopped by Close.
func (c *Controller) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close stops the read loop and releases the connection. It is safe to call
// more than once; later calls return the result of the first. Close must not
// be called from an observer.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if d, ok := c.conn.(drainer); ok {
			if err := d.Drain(); err != nil {
				c.logger.Debug().Err(err).Msg("drain before close failed")
				if f, ok := c.conn.(outputFlusher); ok {
					if err := f.FlushOutput(); err != nil {
						c.logger.Debug().Err(err).Msg("discarding output failed")
					}
				}
			}
		}
		c.closeErr = c.conn.Close()
		<-c.done
	})
	return c.closeErr
}
