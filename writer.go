package trafficlight

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// wire serializes every discrete write to the shared connection so the ack
// path and the override path never interleave bytes.
type wire struct {
	mu sync.Mutex
	w  io.Writer
}

func newWire(w io.Writer) *wire {
	return &wire{w: w}
}

func (w *wire) write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// Writer sends override commands to the device
type Writer struct {
	wire *wire
	emit func(Event)
	now  func() time.Time
}

// SendOverride writes the single-byte override command for light and emits
// an OUT event once the write succeeded. Nothing is retried.
func (w *Writer) SendOverride(light Light) error {
	b, err := overrideByte(light)
	if err != nil {
		return err
	}

	data := []byte{b}
	if err := w.wire.write(data); err != nil {
		return fmt.Errorf("failed to write %s override: %w", light, err)
	}

	w.emit(newEvent(DirectionOut, light, data, w.now()))
	return nil
}
