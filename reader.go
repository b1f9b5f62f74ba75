package trafficlight

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const readChunkSize = 256

// Reader turns the inbound byte stream into events. It owns every read on
// the connection and must only be run from a single goroutine.
//
// Frames are cut from the buffer strictly 8 bytes at a time. The stream is
// never resynchronized: a stray byte shifts every following frame until the
// device happens to realign it.
type Reader struct {
	conn         io.Reader
	wire         *wire
	emit         func(Event)
	now          func() time.Time
	pollInterval time.Duration
	logger       zerolog.Logger

	buf      []byte
	buffered atomic.Int64
}

// Buffered returns the number of bytes waiting for a complete frame
func (r *Reader) Buffered() int {
	return int(r.buffered.Load())
}

// Run reads until ctx is cancelled or the connection fails. It returns nil
// when stopped through ctx and the read error otherwise.
func (r *Reader) Run(ctx context.Context) error {
	chunk := make([]byte, readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.conn.Read(chunk)
		if n > 0 {
			r.consume(chunk[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if n == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.pollInterval):
			}
		}
	}
}

// consume appends data to the buffer and processes every complete frame
func (r *Reader) consume(data []byte) {
	r.buf = append(r.buf, data...)

	for len(r.buf) >= FrameSize {
		frame := make([]byte, FrameSize)
		copy(frame, r.buf[:FrameSize])
		r.buf = r.buf[FrameSize:]
		r.handleFrame(frame)
	}

	// Compact so the backing array does not grow with the stream
	if len(r.buf) == 0 {
		r.buf = r.buf[:0:0]
	}
	r.buffered.Store(int64(len(r.buf)))
}

func (r *Reader) handleFrame(frame []byte) {
	light, err := Decode(frame)
	if err != nil {
		return
	}

	ts := r.now()
	if !light.NeedsAck() {
		r.emit(newEvent(DirectionIn, light, frame, ts))
		return
	}

	ack := []byte{AckByte}
	ackErr := r.wire.write(ack)

	r.emit(newEvent(DirectionIn, light, frame, ts))
	if ackErr != nil {
		r.logger.Warn().
			Err(ackErr).
			Str("light", light.String()).
			Msg("failed to acknowledge frame")
		return
	}
	r.emit(newEvent(DirectionOut, LightAck, ack, r.now()))
}
