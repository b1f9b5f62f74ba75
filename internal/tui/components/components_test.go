package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/allbin/trafficlight"
)

var eventTime = time.Date(2025, 6, 1, 12, 30, 15, 250_000_000, time.UTC)

func TestEventFormatter(t *testing.T) {
	f := NewEventFormatter(false)
	in := trafficlight.Event{
		Direction: trafficlight.DirectionIn,
		Light:     trafficlight.LightRed,
		Data:      []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA, 0xDD},
		Timestamp: eventTime,
	}
	out := trafficlight.Event{Direction: trafficlight.DirectionOut, Light: trafficlight.LightAck, Data: []byte{0xAC}, Timestamp: eventTime}

	if got := f.Timestamp(in); got != "12:30:15" {
		t.Errorf("Timestamp() = %q", got)
	}
	f.ToggleMillis()
	if got := f.Timestamp(in); got != "12:30:15.250" {
		t.Errorf("Timestamp() with millis = %q", got)
	}

	if got := f.Direction(in); got != "↙ IN" {
		t.Errorf("Direction(in) = %q", got)
	}
	if got := f.Direction(out); got != "↗ OUT" {
		t.Errorf("Direction(out) = %q", got)
	}
	if got := f.Data(in); got != "01 02 03 04 05 06 BA DD" {
		t.Errorf("Data() = %q", got)
	}

	line := f.Line(out)
	for _, want := range []string{"12:30:15.250", "OUT", "ACK", "AC"} {
		if !strings.Contains(line, want) {
			t.Errorf("Line() = %q, missing %q", line, want)
		}
	}
}

func TestEventTableNewestFirst(t *testing.T) {
	et := NewEventTable(80, 12)
	events := []trafficlight.Event{
		{Direction: trafficlight.DirectionIn, Light: trafficlight.LightRed, Timestamp: eventTime},
		{Direction: trafficlight.DirectionIn, Light: trafficlight.LightGreen, Timestamp: eventTime.Add(time.Second)},
	}
	et.SetEvents(events)

	if et.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", et.Len())
	}
	view := et.View()
	green := strings.Index(view, "GREEN")
	red := strings.Index(view, "RED")
	if green < 0 || red < 0 {
		t.Fatalf("View() is missing rows:\n%s", view)
	}
	if green > red {
		t.Error("newest event is not listed first")
	}

	et.Clear()
	if et.Len() != 0 {
		t.Errorf("Len() = %d after Clear", et.Len())
	}
}

func TestLightsShowOppositeRoads(t *testing.T) {
	l := NewLights()
	view := l.View(trafficlight.LightGreen, 4, true)

	for _, want := range []string{"Main Road", "Side Road", "GREEN", "RED", " 4s"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	idle := l.View(trafficlight.LightRed, 0, false)
	if !strings.Contains(idle, "--") {
		t.Errorf("idle countdown not shown as --:\n%s", idle)
	}
}

func TestStatusBar(t *testing.T) {
	sb := NewStatusBar("/dev/ttyACM0")
	sb.SetConnectionInfo(&ConnectionInfo{BaudRate: 9600, Framing: "7E2"})
	sb.SetWidth(120)
	sb.SetConnected()

	view := sb.View(trafficlight.State{Light: trafficlight.LightGreen, Since: eventTime}, 3, eventTime)
	for _, want := range []string{"GREEN", "/dev/ttyACM0", "9600 baud 7E2", "3 events", "since 12:30:15"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	lost := errors.New("gone")
	sb.SetDisconnected(lost)
	if !errors.Is(sb.Err(), lost) {
		t.Errorf("Err() = %v, want %v", sb.Err(), lost)
	}
}
