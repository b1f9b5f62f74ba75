package trafficlight

import "errors"

// Predefined errors, check with errors.Is
var (
	ErrInvalidFrame    = errors.New("invalid frame")
	ErrInvalidOverride = errors.New("override must be RED or GREEN")
	ErrClosed          = errors.New("controller is closed")
	ErrInvalidConfig   = errors.New("invalid controller configuration")
)
