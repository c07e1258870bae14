package midiout

import "errors"

// Domain-specific errors for MIDI output.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPortNotFound is returned when no MIDI output port matches the
	// configured name.
	ErrPortNotFound = errors.New("midiout: output port not found")
)
