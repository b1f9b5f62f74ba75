package trafficlight

// CountdownDurations holds the number of time units shown after each light
type CountdownDurations struct {
	Red   int
	Green int
}

// DefaultCountdownDurations match the device's hold times in seconds
func DefaultCountdownDurations() CountdownDurations {
	return CountdownDurations{Red: 10, Green: 6}
}

// Countdown is a display aid restarted by every inbound RED or GREEN event
// and decremented once per time unit until it reaches zero. It is not a
// prediction of when the device will switch.
//
// Countdown is not safe for concurrent use; the observer that owns it drives
// both Observe and Tick from one goroutine.
type Countdown struct {
	durations  CountdownDurations
	light      Light
	remaining  int
	generation uint64
}

// NewCountdown returns an idle countdown
func NewCountdown(durations CountdownDurations) *Countdown {
	return &Countdown{durations: durations}
}

// Observe restarts the countdown for inbound RED and GREEN events and
// reports whether it did. Every other event is ignored.
func (c *Countdown) Observe(ev Event) bool {
	if ev.Direction != DirectionIn {
		return false
	}
	switch ev.Light {
	case LightRed:
		c.reset(LightRed, c.durations.Red)
	case LightGreen:
		c.reset(LightGreen, c.durations.Green)
	default:
		return false
	}
	return true
}

func (c *Countdown) reset(light Light, units int) {
	c.light = light
	c.remaining = units
	c.generation++
}

// Tick advances the countdown by one time unit. It holds at zero.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the units left in the current phase
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Light returns the light the countdown was last started for
func (c *Countdown) Light() Light {
	return c.light
}

// Generation changes on every restart. Timers scheduled for an older
// generation must be dropped so a restart cancels the running sequence.
func (c *Countdown) Generation() uint64 {
	return c.generation
}

// Active reports whether the countdown has been started and not run out
func (c *Countdown) Active() bool {
	return c.remaining > 0
}
