// Package capture records controller events as a stream of CBOR items so a
// session can be replayed later.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/fxamacker/cbor/v2"
)

// ErrUnknownField is returned when a record names a direction or light this
// version does not know
var ErrUnknownField = errors.New("unknown record field")

// Record is the on-disk form of an event
type Record struct {
	Time      time.Time `cbor:"1,keyasint"`
	Direction string    `cbor:"2,keyasint"`
	Light     string    `cbor:"3,keyasint"`
	Data      []byte    `cbor:"4,keyasint"`
}

// NewRecord converts an event to its on-disk form
func NewRecord(ev trafficlight.Event) Record {
	return Record{
		Time:      ev.Timestamp,
		Direction: ev.Direction.String(),
		Light:     ev.Light.String(),
		Data:      ev.Data,
	}
}

// Event converts the record back to an event
func (r Record) Event() (trafficlight.Event, error) {
	var ev trafficlight.Event

	switch r.Direction {
	case "IN":
		ev.Direction = trafficlight.DirectionIn
	case "OUT":
		ev.Direction = trafficlight.DirectionOut
	default:
		return ev, fmt.Errorf("%w: direction %q", ErrUnknownField, r.Direction)
	}

	switch r.Light {
	case "RED":
		ev.Light = trafficlight.LightRed
	case "GREEN":
		ev.Light = trafficlight.LightGreen
	case "ACK":
		ev.Light = trafficlight.LightAck
	case "UNKNOWN":
		ev.Light = trafficlight.LightUnknown
	default:
		return ev, fmt.Errorf("%w: light %q", ErrUnknownField, r.Light)
	}

	ev.Data = append([]byte(nil), r.Data...)
	ev.Timestamp = r.Time
	return ev, nil
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// Writer appends records to an io.Writer. Observe can be passed to
// trafficlight.WithObserver; it never blocks the caller on an earlier error.
type Writer struct {
	mu    sync.Mutex
	enc   *cbor.Encoder
	err   error
	count int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Observe writes ev. After the first failure every later event is dropped
// and the failure is reported by Err.
func (w *Writer) Observe(ev trafficlight.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	if err := w.enc.Encode(NewRecord(ev)); err != nil {
		w.err = fmt.Errorf("capture write failed: %w", err)
		return
	}
	w.count++
}

// Err returns the first write error
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Count returns the number of records written
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Reader reads records written by Writer
type Reader struct {
	dec *cbor.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture read failed: %w", err)
	}
	return rec, nil
}

// ReadAll reads every record from r
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
