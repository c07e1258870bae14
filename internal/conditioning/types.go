package conditioning

import "time"

// Channel set sizes. The control surface is fixed hardware; channel
// counts are compile-time constants and channel indices are the only
// addressing mechanism.
const (
	ButtonCount   = 10
	JoystickCount = 4
	SwitchCount   = 3
	PotCount      = 6
)

// Analog domains. Raw samples come from a 10-bit ADC; conditioned
// output is mapped into the 7-bit MIDI value range.
const (
	MaxRawSample = 1023
	MaxOutput    = 127
)

// Millis is a wrapping millisecond timestamp. All elapsed-time checks
// use unsigned subtraction so comparisons stay correct across the
// uint32 rollover (~49.7 days). The conditioning layer never reads a
// clock; every timestamp is supplied by the caller.
type Millis uint32

// MillisSince converts a duration measured from a fixed monotonic
// epoch into a wrapping Millis timestamp.
func MillisSince(epoch time.Time, now time.Time) Millis {
	return Millis(now.Sub(epoch).Milliseconds()) // deliberate truncation to uint32
}

// JoystickDir identifies one of the four momentary joystick channels.
type JoystickDir uint8

const (
	JoyUp JoystickDir = iota
	JoyDown
	JoyLeft
	JoyRight
)

// String returns the direction name for logging.
func (d JoystickDir) String() string {
	switch d {
	case JoyUp:
		return "up"
	case JoyDown:
		return "down"
	case JoyLeft:
		return "left"
	case JoyRight:
		return "right"
	}
	return "unknown"
}

// Frame is one raw scan of every input channel, tagged with a single
// cycle timestamp by the caller. Digital values are logical (true =
// active, inversion for pull-ups happens in the source layer); pot
// values are raw ADC samples in 0..MaxRawSample.
type Frame struct {
	Buttons  [ButtonCount]bool
	Joystick [JoystickCount]bool
	Switches [SwitchCount]bool
	Pots     [PotCount]uint16
}
