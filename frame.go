package trafficlight

import (
	"bytes"
	"fmt"
)

// Wire constants
const (
	FrameSize   = 8
	PayloadSize = FrameSize - 2

	AckByte           byte = 0xAC
	OverrideRedByte   byte = 0x00
	OverrideGreenByte byte = 0x01
)

var (
	redPayload   = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	greenPayload = []byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
)

// Decode classifies a frame received from the device.
// It returns ErrInvalidFrame if the frame is not 8 bytes or fails the CRC.
func Decode(frame []byte) (Light, error) {
	if len(frame) != FrameSize || !ValidCRC(frame) {
		return LightUnknown, ErrInvalidFrame
	}

	payload := frame[:PayloadSize]
	switch {
	case bytes.Equal(payload, redPayload):
		return LightRed, nil
	case bytes.Equal(payload, greenPayload):
		return LightGreen, nil
	default:
		return LightUnknown, nil
	}
}

// EncodeFrame builds the frame the device sends to announce a light
func EncodeFrame(light Light) ([]byte, error) {
	switch light {
	case LightRed:
		return AppendCRC(redPayload), nil
	case LightGreen:
		return AppendCRC(greenPayload), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidFrame, light)
	}
}

// overrideByte maps a requested light to its single-byte command
func overrideByte(light Light) (byte, error) {
	switch light {
	case LightRed:
		return OverrideRedByte, nil
	case LightGreen:
		return OverrideGreenByte, nil
	default:
		return 0, fmt.Errorf("%w: got %s", ErrInvalidOverride, light)
	}
}
