package trafficlight

import (
	"errors"
	"testing"
)

func TestLightString(t *testing.T) {
	tests := []struct {
		light Light
		want  string
	}{
		{LightUnknown, "UNKNOWN"},
		{LightRed, "RED"},
		{LightGreen, "GREEN"},
		{LightAck, "ACK"},
		{Light(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.light.String(); got != tt.want {
			t.Errorf("Light(%d).String() = %q, want %q", int(tt.light), got, tt.want)
		}
	}

	if DirectionIn.String() != "IN" || DirectionOut.String() != "OUT" {
		t.Errorf("Direction strings = %q, %q", DirectionIn, DirectionOut)
	}
}

func TestOpposite(t *testing.T) {
	tests := []struct {
		light Light
		want  Light
	}{
		{LightRed, LightGreen},
		{LightGreen, LightRed},
		{LightUnknown, LightUnknown},
		{LightAck, LightAck},
	}
	for _, tt := range tests {
		if got := tt.light.Opposite(); got != tt.want {
			t.Errorf("%s.Opposite() = %s, want %s", tt.light, got, tt.want)
		}
	}
}

func TestRoadMapping(t *testing.T) {
	tests := []struct {
		road         Road
		state        Light
		wantShown    Light
		requested    Light
		wantOverride Light
	}{
		{RoadMain, LightRed, LightRed, LightGreen, LightGreen},
		{RoadMain, LightGreen, LightGreen, LightRed, LightRed},
		{RoadSide, LightRed, LightGreen, LightGreen, LightRed},
		{RoadSide, LightGreen, LightRed, LightRed, LightGreen},
	}

	for _, tt := range tests {
		t.Run(tt.road.String()+"/"+tt.state.String(), func(t *testing.T) {
			if got := tt.road.LightFor(tt.state); got != tt.wantShown {
				t.Errorf("LightFor(%s) = %s, want %s", tt.state, got, tt.wantShown)
			}
			if got := tt.road.OverrideFor(tt.requested); got != tt.wantOverride {
				t.Errorf("OverrideFor(%s) = %s, want %s", tt.requested, got, tt.wantOverride)
			}
		})
	}
}

func TestRoadsAlwaysOpposite(t *testing.T) {
	for _, state := range []Light{LightRed, LightGreen} {
		main := RoadMain.LightFor(state)
		side := RoadSide.LightFor(state)
		if main == side {
			t.Errorf("state %s shows %s on both roads", state, main)
		}
	}
}

func TestParseLight(t *testing.T) {
	tests := []struct {
		in      string
		want    Light
		wantErr bool
	}{
		{"red", LightRed, false},
		{"RED", LightRed, false},
		{" Green ", LightGreen, false},
		{"g", LightGreen, false},
		{"r", LightRed, false},
		{"yellow", LightUnknown, true},
		{"", LightUnknown, true},
		{"ack", LightUnknown, true},
	}

	for _, tt := range tests {
		got, err := ParseLight(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidOverride) {
				t.Errorf("ParseLight(%q) error = %v, want ErrInvalidOverride", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLight(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
}
