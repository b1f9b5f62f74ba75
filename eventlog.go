package trafficlight

import (
	"fmt"
	"sync"
)

// DefaultLogSize is the number of events an EventLog keeps
const DefaultLogSize = 100

// EventLog keeps the most recent events in memory. Observe can be passed
// to WithObserver directly.
type EventLog struct {
	mu      sync.Mutex
	entries []Event
	size    int
}

// NewEventLog returns a log holding at most size events
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &EventLog{
		entries: make([]Event, 0, size),
		size:    size,
	}
}

// Observe appends ev, dropping the oldest entry when full
func (l *EventLog) Observe(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.size {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.size-1]
	}
	l.entries = append(l.entries, ev)
}

// Entries returns a copy of the log, oldest first
func (l *EventLog) Entries() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// FormatEvent renders ev as a single log line:
//
//	[15:04:05] IN | Light: RED | Data: 01 02 03 04 05 06 BA DD
func FormatEvent(ev Event) string {
	return fmt.Sprintf("[%s] %s | Light: %s | Data: %s",
		ev.Timestamp.Format("15:04:05"), ev.Direction, ev.Light, HexData(ev.Data))
}

// HexData formats up to one frame of bytes as space separated hex
func HexData(data []byte) string {
	if len(data) > FrameSize {
		data = data[:FrameSize]
	}
	return fmt.Sprintf("% X", data)
}
