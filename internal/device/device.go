// Package device simulates the traffic light controller board.
//
// The board cycles RED and GREEN. On entering a phase it transmits the
// phase's frame repeatedly until the supervisor answers with 0xAC, then
// turns the lamp on and holds the phase for a fixed time. A single 0x00 or
// 0x01 byte forces RED or GREEN: the frame is sent once and the board goes
// straight to holding that phase.
package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/rs/zerolog"
)

// Phase is the position of the board in its cycle
type Phase int

const (
	PhaseSendRed Phase = iota
	PhaseHoldRed
	PhaseSendGreen
	PhaseHoldGreen
)

func (p Phase) String() string {
	switch p {
	case PhaseSendRed:
		return "send-red"
	case PhaseHoldRed:
		return "hold-red"
	case PhaseSendGreen:
		return "send-green"
	case PhaseHoldGreen:
		return "hold-green"
	default:
		return "unknown"
	}
}

// Config controls the simulated timings
type Config struct {
	ResendInterval time.Duration // Pause between unacknowledged frames
	RedHold        time.Duration
	GreenHold      time.Duration
	Logger         zerolog.Logger
}

// DefaultConfig returns the board's hold times with a resend interval slow
// enough to read in a log
func DefaultConfig() Config {
	return Config{
		ResendInterval: 250 * time.Millisecond,
		RedHold:        10 * time.Second,
		GreenHold:      6 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

// Device is the simulated board. All methods are safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	config    Config
	phase     Phase
	lastSend  time.Time // zero: send on the next Step
	holdStart time.Time

	redFrame   []byte
	greenFrame []byte
}

// New returns a board about to announce RED
func New(config Config) (*Device, error) {
	if config.ResendInterval <= 0 || config.RedHold <= 0 || config.GreenHold <= 0 {
		return nil, fmt.Errorf("%w: timings must be positive", trafficlight.ErrInvalidConfig)
	}

	red, err := trafficlight.EncodeFrame(trafficlight.LightRed)
	if err != nil {
		return nil, err
	}
	green, err := trafficlight.EncodeFrame(trafficlight.LightGreen)
	if err != nil {
		return nil, err
	}

	return &Device{
		config:     config,
		phase:      PhaseSendRed,
		redFrame:   red,
		greenFrame: green,
	}, nil
}

// Phase returns the current phase
func (d *Device) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Light returns the lamp that is lit. Lamps are dark while a frame waits
// for its ack.
func (d *Device) Light() trafficlight.Light {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseHoldRed:
		return trafficlight.LightRed
	case PhaseHoldGreen:
		return trafficlight.LightGreen
	default:
		return trafficlight.LightUnknown
	}
}

// Reset is the board's push button: lamps off, back to announcing RED
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.phase = PhaseSendRed
	d.lastSend = time.Time{}
	d.config.Logger.Info().Msg("reset")
}

// HandleByte processes one byte from the supervisor and returns what the
// board transmits in response, if anything.
func (d *Device) HandleByte(b byte, now time.Time) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch b {
	case trafficlight.AckByte:
		switch d.phase {
		case PhaseSendRed:
			d.enter(PhaseHoldRed, now)
		case PhaseSendGreen:
			d.enter(PhaseHoldGreen, now)
		}
		return nil
	case trafficlight.OverrideRedByte:
		d.config.Logger.Info().Msg("override to RED")
		d.enter(PhaseHoldRed, now)
		return bytes.Clone(d.redFrame)
	case trafficlight.OverrideGreenByte:
		d.config.Logger.Info().Msg("override to GREEN")
		d.enter(PhaseHoldGreen, now)
		return bytes.Clone(d.greenFrame)
	default:
		d.config.Logger.Debug().Uint8("byte", b).Msg("ignoring byte")
		return nil
	}
}

// Step advances the board's timers to now and returns a frame if one is due
func (d *Device) Step(now time.Time) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseHoldRed:
		if now.Sub(d.holdStart) >= d.config.RedHold {
			d.enter(PhaseSendGreen, now)
		}
	case PhaseHoldGreen:
		if now.Sub(d.holdStart) >= d.config.GreenHold {
			d.enter(PhaseSendRed, now)
		}
	}

	var frame []byte
	switch d.phase {
	case PhaseSendRed:
		frame = d.redFrame
	case PhaseSendGreen:
		frame = d.greenFrame
	default:
		return nil
	}

	if !d.lastSend.IsZero() && now.Sub(d.lastSend) < d.config.ResendInterval {
		return nil
	}
	d.lastSend = now
	return bytes.Clone(frame)
}

// enter must be called with mu held
func (d *Device) enter(phase Phase, now time.Time) {
	d.phase = phase
	switch phase {
	case PhaseHoldRed, PhaseHoldGreen:
		d.holdStart = now
	case PhaseSendRed, PhaseSendGreen:
		d.lastSend = time.Time{}
	}
	d.config.Logger.Debug().Str("phase", phase.String()).Msg("phase changed")
}

// Run drives the board over rw until ctx is cancelled or rw fails. The
// caller closes rw after Run returns to release the internal reader.
func (d *Device) Run(ctx context.Context, rw io.ReadWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := rw.Read(buf)
			if n > 0 {
				select {
				case incoming <- bytes.Clone(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(d.config.ResendInterval)
	defer ticker.Stop()

	send := func(frame []byte) error {
		if frame == nil {
			return nil
		}
		if _, err := rw.Write(frame); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		d.config.Logger.Debug().Str("data", trafficlight.HexData(frame)).Msg("sent frame")
		return nil
	}

	if err := send(d.Step(time.Now())); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		case data := <-incoming:
			for _, b := range data {
				if err := send(d.HandleByte(b, time.Now())); err != nil {
					return err
				}
			}
		case now := <-ticker.C:
			if err := send(d.Step(now)); err != nil {
				return err
			}
		}
	}
}
