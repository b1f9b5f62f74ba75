package trafficlight

import "github.com/sigurn/crc16"

var modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum computes the Modbus CRC16 (init 0xFFFF, reflected poly 0xA001)
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, modbusTable)
}

// ValidCRC reports whether the last two bytes of frame hold the little-endian
// checksum of the bytes before them. Frames shorter than 3 bytes are invalid.
func ValidCRC(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	n := len(frame)
	received := uint16(frame[n-2]) | uint16(frame[n-1])<<8
	return received == Checksum(frame[:n-2])
}

// AppendCRC returns payload followed by its checksum, low byte first
func AppendCRC(payload []byte) []byte {
	crc := Checksum(payload)
	out := make([]byte, 0, len(payload)+2)
	out = append(out, payload...)
	return append(out, byte(crc), byte(crc>>8))
}
