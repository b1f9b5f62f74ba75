package trafficlight

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

var errFakeClosed = errors.New("fake connection closed")

// fakeConn is an in-memory connection. Reads return queued chunks or time
// out after a few milliseconds like a serial port with VTIME set.
type fakeConn struct {
	reads   chan []byte
	readErr chan error
	closed  chan struct{}
	once    sync.Once

	mu         sync.Mutex
	writes     [][]byte
	writeErr   error
	shortWrite bool
	writeDelay time.Duration

	inWrite  atomic.Bool
	overlaps atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:   make(chan []byte, 64),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) Read(p []byte) (int, error) {
	select {
	case chunk := <-f.reads:
		return copy(p, chunk), nil
	case err := <-f.readErr:
		return 0, err
	case <-f.closed:
		return 0, errFakeClosed
	case <-time.After(2 * time.Millisecond):
		return 0, nil
	}
}

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.inWrite.CompareAndSwap(false, true) {
		defer f.inWrite.Store(false)
	} else {
		f.overlaps.Add(1)
	}

	f.mu.Lock()
	delay, err, short := f.writeDelay, f.writeErr, f.shortWrite
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	f.writes = append(f.writes, bytes.Clone(p))
	f.mu.Unlock()

	if short {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) feed(chunk []byte) {
	f.reads <- bytes.Clone(chunk)
}

func (f *fakeConn) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

func (f *fakeConn) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// recorder is an Observer collecting events
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// waitFor polls until at least n events were recorded
func (r *recorder) waitFor(t *testing.T, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := r.snapshot(); len(events) >= n {
			return events
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %d", n, len(r.snapshot()))
	return nil
}

func mustFrame(t *testing.T, light Light) []byte {
	t.Helper()
	frame, err := EncodeFrame(light)
	if err != nil {
		t.Fatalf("EncodeFrame(%s): %v", light, err)
	}
	return frame
}

// fixedClock returns a clock that always reports ts
func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// drainConn is a fakeConn that can also drain and discard its output
type drainConn struct {
	*fakeConn
	drainErr error
	flushed  atomic.Bool
}

func (d *drainConn) Drain() error {
	return d.drainErr
}

func (d *drainConn) FlushOutput() error {
	d.flushed.Store(true)
	return nil
}

// openPTY returns the master side of a new pseudo-terminal and the path of
// its slave, which stands in for the device's serial port
func openPTY(t *testing.T) (int, string) {
	t.Helper()

	master, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		t.Skipf("pseudo-terminals not available: %v", err)
	}
	t.Cleanup(func() { unix.Close(master) })

	if err := unix.IoctlSetPointerInt(master, unix.TIOCSPTLCK, 0); err != nil {
		t.Skipf("unlocking pseudo-terminal: %v", err)
	}
	n, err := unix.IoctlGetUint32(master, unix.TIOCGPTN)
	if err != nil {
		t.Skipf("pseudo-terminal number: %v", err)
	}
	return master, fmt.Sprintf("/dev/pts/%d", n)
}
