package trafficlight

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/allbin/trafficlight/internal/serialport"
	"golang.org/x/sys/unix"
)

func newTestController(t *testing.T, conn *fakeConn, opts ...Option) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{
		WithObserver(rec.observe),
		WithPollInterval(time.Millisecond),
	}, opts...)

	ctrl, err := New(conn, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { ctrl.Close() })
	return ctrl, rec
}

func TestControllerInitialState(t *testing.T) {
	conn := newFakeConn()
	ctrl, _ := newTestController(t, conn, WithClock(fixedClock(testTime)))

	state := ctrl.State()
	if state.Light != LightRed {
		t.Errorf("initial light = %s, want RED", state.Light)
	}
	if !state.Since.Equal(testTime) {
		t.Errorf("initial Since = %v, want %v", state.Since, testTime)
	}
}

func TestControllerTracksState(t *testing.T) {
	conn := newFakeConn()
	ctrl, rec := newTestController(t, conn)

	conn.feed(mustFrame(t, LightGreen))
	rec.waitFor(t, 2)
	if got := ctrl.State().Light; got != LightGreen {
		t.Fatalf("state after GREEN = %s", got)
	}

	conn.feed(mustFrame(t, LightRed))
	events := rec.waitFor(t, 4)
	if got := ctrl.State().Light; got != LightRed {
		t.Fatalf("state after RED = %s", got)
	}
	if !ctrl.State().Since.Equal(events[2].Timestamp) {
		t.Errorf("Since = %v, want the RED event time %v", ctrl.State().Since, events[2].Timestamp)
	}
}

func TestControllerUnknownKeepsState(t *testing.T) {
	conn := newFakeConn()
	ctrl, rec := newTestController(t, conn)

	conn.feed(mustFrame(t, LightGreen))
	rec.waitFor(t, 2)
	before := ctrl.State()

	conn.feed(AppendCRC([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}))
	events := rec.waitFor(t, 3)
	if events[2].Light != LightUnknown {
		t.Fatalf("third event = %s, want UNKNOWN", events[2].Light)
	}
	if ctrl.State() != before {
		t.Errorf("state changed on UNKNOWN: %+v -> %+v", before, ctrl.State())
	}
}

func TestControllerNotifiesEveryObserver(t *testing.T) {
	conn := newFakeConn()
	second := &recorder{}
	_, first := newTestController(t, conn, WithObserver(second.observe))

	conn.feed(mustFrame(t, LightRed))
	first.waitFor(t, 2)
	second.waitFor(t, 2)
}

func TestControllerOverride(t *testing.T) {
	conn := newFakeConn()
	ctrl, rec := newTestController(t, conn)

	if err := ctrl.Override(LightGreen); err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	checkEvents(t, rec.waitFor(t, 1), []wantEvent{
		{DirectionOut, LightGreen, []byte{OverrideGreenByte}},
	})
	// the device has not confirmed anything yet
	if got := ctrl.State().Light; got != LightRed {
		t.Errorf("state after override = %s, want RED until the device reports", got)
	}

	if err := ctrl.Override(LightAck); !errors.Is(err, ErrInvalidOverride) {
		t.Errorf("Override(ACK) = %v, want ErrInvalidOverride", err)
	}
}

func TestControllerClose(t *testing.T) {
	conn := newFakeConn()
	ctrl, _ := newTestController(t, conn)

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-ctrl.Done():
	default:
		t.Fatal("Done not closed after Close returned")
	}
	if err := ctrl.Err(); err != nil {
		t.Errorf("Err() = %v after Close, want nil", err)
	}
	if err := ctrl.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if err := ctrl.Override(LightRed); !errors.Is(err, ErrClosed) {
		t.Errorf("Override after Close = %v, want ErrClosed", err)
	}
	if n := len(conn.written()); n != 0 {
		t.Errorf("got %d writes after Close, want 0", n)
	}
}

func TestControllerCloseDiscardsUndrainedOutput(t *testing.T) {
	tests := []struct {
		name        string
		drainErr    error
		wantFlushed bool
	}{
		{"drained", nil, false},
		{"drain failed", errors.New("drain timed out"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &drainConn{fakeConn: newFakeConn(), drainErr: tt.drainErr}
			ctrl, err := New(conn, WithPollInterval(time.Millisecond))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := ctrl.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if got := conn.flushed.Load(); got != tt.wantFlushed {
				t.Errorf("output flushed = %v, want %v", got, tt.wantFlushed)
			}
		})
	}
}

func TestOpenDiscardsStaleInput(t *testing.T) {
	master, slave := openPTY(t)

	// Hold the slave open in raw mode so bytes written before Open queue up
	holder, err := serialport.Open(slave)
	if err != nil {
		t.Fatalf("serialport.Open(%s) failed: %v", slave, err)
	}
	defer holder.Close()

	red := mustFrame(t, LightRed)
	if _, err := unix.Write(master, red[5:]); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	rec := &recorder{}
	ctrl, err := Open(slave, WithObserver(rec.observe), WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", slave, err)
	}
	defer ctrl.Close()

	if _, err := unix.Write(master, red); err != nil {
		t.Fatal(err)
	}

	events := rec.waitFor(t, 2)
	if events[0].Direction != DirectionIn || events[0].Light != LightRed {
		t.Errorf("first event = %s %s, want IN RED", events[0].Direction, events[0].Light)
	}
	if !bytes.Equal(events[0].Data, red) {
		t.Errorf("first event data = % X, want % X", events[0].Data, red)
	}
	if events[1].Direction != DirectionOut || events[1].Light != LightAck {
		t.Errorf("second event = %s %s, want OUT ACK", events[1].Direction, events[1].Light)
	}
	if n := ctrl.Buffered(); n != 0 {
		t.Errorf("Buffered() = %d, want 0", n)
	}
}

func TestControllerReadFailure(t *testing.T) {
	conn := newFakeConn()
	ctrl, _ := newTestController(t, conn)
	readErr := errors.New("input/output error")

	if err := ctrl.Err(); err != nil {
		t.Fatalf("Err() = %v while running", err)
	}
	conn.readErr <- readErr

	select {
	case <-ctrl.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop did not stop after a read error")
	}
	if err := ctrl.Err(); !errors.Is(err, readErr) {
		t.Errorf("Err() = %v, want wrapped %v", err, readErr)
	}
}

func TestControllerWritesNeverInterleave(t *testing.T) {
	conn := newFakeConn()
	conn.writeDelay = 200 * time.Microsecond
	ctrl, rec := newTestController(t, conn)

	const frames = 20
	const overrides = 20

	red := mustFrame(t, LightRed)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			conn.feed(red)
		}
	}()
	for i := 0; i < overrides; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			light := LightRed
			if i%2 == 1 {
				light = LightGreen
			}
			if err := ctrl.Override(light); err != nil {
				t.Errorf("Override() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
	rec.waitFor(t, 2*frames+overrides)

	if n := conn.overlaps.Load(); n != 0 {
		t.Errorf("%d writes overlapped", n)
	}
	writes := conn.written()
	if len(writes) != frames+overrides {
		t.Fatalf("got %d writes, want %d", len(writes), frames+overrides)
	}
	for i, w := range writes {
		if len(w) != 1 {
			t.Errorf("write %d is %d bytes, want 1", i, len(w))
		}
	}
}

func TestNewRejectsInvalidOption(t *testing.T) {
	_, err := New(newFakeConn(), WithObserver(nil))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestOpenMissingPort(t *testing.T) {
	_, err := Open("/dev/ttyDOESNOTEXIST99")
	if !errors.Is(err, serialport.ErrDeviceNotFound) {
		t.Errorf("Open() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestNewEventCopiesData(t *testing.T) {
	data := []byte{0x01, 0x02}
	ev := newEvent(DirectionIn, LightRed, data, testTime)
	data[0] = 0xFF
	if ev.Data[0] != 0x01 {
		t.Error("event shares its data with the caller")
	}
}
