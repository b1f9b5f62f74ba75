package trafficlight

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		want    Light
		wantErr error
	}{
		{
			name:  "red",
			frame: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA, 0xDD},
			want:  LightRed,
		},
		{
			name:  "green",
			frame: []byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0xFD, 0xED},
			want:  LightGreen,
		},
		{
			name:  "valid crc unknown payload",
			frame: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x5E, 0x80},
			want:  LightUnknown,
		},
		{
			name:    "corrupted crc",
			frame:   []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x00, 0x00},
			wantErr: ErrInvalidFrame,
		},
		{
			name:    "corrupted payload",
			frame:   []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x07, 0xBA, 0xDD},
			wantErr: ErrInvalidFrame,
		},
		{
			name:    "too short",
			frame:   []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA},
			wantErr: ErrInvalidFrame,
		},
		{
			name:    "too long",
			frame:   []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA, 0xDD, 0x00},
			wantErr: ErrInvalidFrame,
		},
		{
			name:    "empty",
			frame:   nil,
			wantErr: ErrInvalidFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.frame)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	frame := []byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0xFD, 0xED}
	orig := bytes.Clone(frame)
	for i := 0; i < 3; i++ {
		got, err := Decode(frame)
		if err != nil || got != LightGreen {
			t.Fatalf("Decode() = %s, %v on call %d", got, err, i)
		}
	}
	if !bytes.Equal(frame, orig) {
		t.Error("Decode modified its input")
	}
}

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		light   Light
		want    []byte
		wantErr bool
	}{
		{LightRed, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xBA, 0xDD}, false},
		{LightGreen, []byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0xFD, 0xED}, false},
		{LightUnknown, nil, true},
		{LightAck, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.light.String(), func(t *testing.T) {
			got, err := EncodeFrame(tt.light)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFrame) {
					t.Errorf("EncodeFrame() error = %v, want ErrInvalidFrame", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeFrame() unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeFrame() = % X, want % X", got, tt.want)
			}
			if light, err := Decode(got); err != nil || light != tt.light {
				t.Errorf("Decode(EncodeFrame(%s)) = %s, %v", tt.light, light, err)
			}
		})
	}
}

func TestOverrideByte(t *testing.T) {
	tests := []struct {
		light   Light
		want    byte
		wantErr bool
	}{
		{LightRed, 0x00, false},
		{LightGreen, 0x01, false},
		{LightUnknown, 0, true},
		{LightAck, 0, true},
	}

	for _, tt := range tests {
		got, err := overrideByte(tt.light)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidOverride) {
				t.Errorf("overrideByte(%s) error = %v, want ErrInvalidOverride", tt.light, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("overrideByte(%s) = %#02x, %v, want %#02x", tt.light, got, err, tt.want)
		}
	}
}
