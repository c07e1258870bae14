//go:build !linux

package source

import "github.com/mystery-melody-machine/melodeck/internal/conditioning"

// HardwareReader is only available on Linux (GPIO character device and
// spidev). This stub keeps non-Linux builds working for development;
// use the fake reader there.
type HardwareReader struct{}

// NewHardware always fails on non-Linux platforms.
func NewHardware(Pins, ADC) (*HardwareReader, error) {
	return nil, ErrHardwareUnavailable
}

func (*HardwareReader) Read() (conditioning.Frame, error) {
	return conditioning.Frame{}, ErrHardwareUnavailable
}

func (*HardwareReader) Close() error { return nil }
