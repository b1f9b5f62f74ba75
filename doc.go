// Package trafficlight supervises a two-road traffic light controller over a
// serial link.
//
// The device announces its light phase with 8-byte frames: six payload bytes
// followed by a Modbus CRC16, low byte first. The payload 01 02 03 04 05 06
// means RED and 06 05 04 03 02 01 means GREEN. Every valid RED or GREEN frame
// is acknowledged with the single byte 0xAC. Manual overrides are single
// bytes: 0x00 requests RED and 0x01 requests GREEN.
//
// # Basic Usage
//
// Open a controller on a serial port and observe events:
//
//	events := trafficlight.NewEventLog(trafficlight.DefaultLogSize)
//	ctrl, err := trafficlight.Open("/dev/ttyUSB0",
//	    trafficlight.WithBaudRate(115200),
//	    trafficlight.WithObserver(events.Observe),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	// Force the main road to green
//	err = ctrl.Override(trafficlight.LightGreen)
//
// # Observers
//
// An Observer is called for every decoded inbound frame, every ack written
// and every override sent:
//
//	IN  RED|GREEN|UNKNOWN  the 8 frame bytes
//	OUT ACK                0xAC
//	OUT RED|GREEN          the override byte
//
// Frames that fail the CRC check are dropped without an event. Observers run
// on the read loop goroutine or on the goroutine that called Override, so
// they must be safe for concurrent use and must not block for long.
//
// # Framing
//
// Incoming bytes are cut into frames strictly 8 at a time. There is no
// resynchronization: if the stream loses alignment, following frames fail
// their CRC until the device realigns it. Open discards whatever the port
// received before it was opened, so a stale partial frame cannot shift the
// first real one.
//
// # State
//
// Controller.State returns an immutable snapshot of the last RED or GREEN
// phase reported by the device. The side road always shows the opposite of
// the main road; see Road.LightFor.
//
// # Countdown
//
// Countdown is a display aid for observers: each inbound RED restarts it at
// 10 and each inbound GREEN at 6, and it counts down once per tick to zero.
//
// # Error Handling
//
//	var (
//	    ErrInvalidFrame    // wrong size or CRC mismatch
//	    ErrInvalidOverride // override was not RED or GREEN
//	    ErrClosed          // controller already closed
//	    ErrInvalidConfig   // rejected option
//	)
//
// A failing read ends the read loop; Controller.Done is closed and
// Controller.Err reports the cause. There is no automatic reconnection.
package trafficlight
