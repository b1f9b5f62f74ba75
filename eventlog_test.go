package trafficlight

import (
	"testing"
	"time"
)

func TestEventLogKeepsNewest(t *testing.T) {
	log := NewEventLog(3)
	for i := 0; i < 5; i++ {
		log.Observe(Event{Data: []byte{byte(i)}})
	}

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	for i, ev := range entries {
		if want := byte(i + 2); ev.Data[0] != want {
			t.Errorf("entry %d = %d, want %d", i, ev.Data[0], want)
		}
	}
}

func TestEventLogDefaultSize(t *testing.T) {
	log := NewEventLog(0)
	for i := 0; i < DefaultLogSize+20; i++ {
		log.Observe(Event{})
	}
	if log.Len() != DefaultLogSize {
		t.Errorf("Len() = %d, want %d", log.Len(), DefaultLogSize)
	}

	log.Clear()
	if log.Len() != 0 {
		t.Errorf("Len() = %d after Clear", log.Len())
	}
}

func TestEventLogEntriesIsCopy(t *testing.T) {
	log := NewEventLog(2)
	log.Observe(Event{Light: LightRed})

	entries := log.Entries()
	entries[0].Light = LightGreen
	if log.Entries()[0].Light != LightRed {
		t.Error("Entries returned the internal slice")
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2025, 1, 2, 15, 4, 5, 0, time.Local)
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "inbound red",
			ev:   Event{DirectionIn, LightRed, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA, 0xDD}, ts},
			want: "[15:04:05] IN | Light: RED | Data: 01 02 03 04 05 06 BA DD",
		},
		{
			name: "ack",
			ev:   Event{DirectionOut, LightAck, []byte{0xAC}, ts},
			want: "[15:04:05] OUT | Light: ACK | Data: AC",
		},
		{
			name: "override",
			ev:   Event{DirectionOut, LightGreen, []byte{0x01}, ts},
			want: "[15:04:05] OUT | Light: GREEN | Data: 01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEvent(tt.ev); got != tt.want {
				t.Errorf("FormatEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHexDataTruncates(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got, want := HexData(data), "00 01 02 03 04 05 06 07"; got != want {
		t.Errorf("HexData() = %q, want %q", got, want)
	}
	if got := HexData(nil); got != "" {
		t.Errorf("HexData(nil) = %q, want empty", got)
	}
}
