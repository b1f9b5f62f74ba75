package trafficlight

import (
	"fmt"
	"strings"
	"time"
)

// Direction tells whether an event came from the device or was sent to it
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Light is the light classification carried by an event
type Light int

const (
	LightUnknown Light = iota
	LightRed
	LightGreen
	LightAck
)

func (l Light) String() string {
	switch l {
	case LightRed:
		return "RED"
	case LightGreen:
		return "GREEN"
	case LightAck:
		return "ACK"
	default:
		return "UNKNOWN"
	}
}

// NeedsAck reports whether a decoded frame of this light must be acknowledged
func (l Light) NeedsAck() bool {
	return l == LightRed || l == LightGreen
}

// Opposite returns the light shown on the crossing road. Only RED and GREEN
// have an opposite; every other value is returned unchanged.
func (l Light) Opposite() Light {
	switch l {
	case LightRed:
		return LightGreen
	case LightGreen:
		return LightRed
	default:
		return l
	}
}

// ParseLight parses "red" or "green" (case-insensitive)
func ParseLight(s string) (Light, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RED", "R":
		return LightRed, nil
	case "GREEN", "G":
		return LightGreen, nil
	default:
		return LightUnknown, fmt.Errorf("%w: %q", ErrInvalidOverride, s)
	}
}

// Road identifies one of the two crossing roads
type Road int

const (
	RoadMain Road = iota
	RoadSide
)

func (r Road) String() string {
	if r == RoadSide {
		return "Side"
	}
	return "Main"
}

// LightFor returns what the road shows when the device reports state
func (r Road) LightFor(state Light) Light {
	if r == RoadSide {
		return state.Opposite()
	}
	return state
}

// OverrideFor maps a light requested for this road to the override that has
// to be sent to the device, which only knows about the main road.
func (r Road) OverrideFor(requested Light) Light {
	if r == RoadSide {
		return requested.Opposite()
	}
	return requested
}

// Event is a single protocol event delivered to observers.
// Events are immutable once created; Data is owned by the event.
type Event struct {
	Direction Direction
	Light     Light
	Data      []byte
	Timestamp time.Time
}

func newEvent(dir Direction, light Light, data []byte, ts time.Time) Event {
	owned := make([]byte, len(data))
	copy(owned, data)
	return Event{
		Direction: dir,
		Light:     light,
		Data:      owned,
		Timestamp: ts,
	}
}

// Observer receives every inbound decoded frame, outbound ack and outbound
// override. Observers may be called from the reader goroutine and from the
// goroutine issuing overrides, so they must be safe for concurrent use.
type Observer func(Event)

// State is an immutable snapshot of the current light phase
type State struct {
	Light Light
	Since time.Time
}
