package source

import "github.com/mystery-melody-machine/melodeck/internal/conditioning"

// Reader supplies one raw frame per scan cycle: a logical boolean per
// digital channel and a raw ADC sample per analog channel. Inversion
// for pulled-up active-low wiring happens here, so the conditioning
// layer always sees true = active.
type Reader interface {
	// Read scans every input channel once.
	Read() (conditioning.Frame, error)

	// Close releases hardware resources.
	Close() error
}

// Pins describes the digital wiring of the control surface. All pins
// are requested as inputs with pull-ups; the switches, buttons and
// joystick contacts short to ground when active.
type Pins struct {
	// Chip is the GPIO character device name, e.g. "gpiochip0".
	Chip string

	Buttons  [conditioning.ButtonCount]int
	Joystick [conditioning.JoystickCount]int
	Switches [conditioning.SwitchCount]int
}

// ADC describes the analog wiring: an MCP3008 on SPI with one channel
// per pot.
type ADC struct {
	// SPIDev is the SPI port name, e.g. "/dev/spidev0.0". Empty picks
	// the first available port.
	SPIDev string

	Channels [conditioning.PotCount]int
}
