//go:build linux

package source

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
)

// HardwareReader scans the real control surface: digital channels via
// the Linux GPIO character device, pots via an MCP3008 on SPI.
type HardwareReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	adc   *mcp3008

	adcChannels [conditioning.PotCount]int
}

// NewHardware requests every configured GPIO line as a pulled-up input
// and opens the ADC. Lines are requested in a single bulk request so
// one Values call reads the whole digital surface per cycle.
func NewHardware(pins Pins, adc ADC) (*HardwareReader, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ErrHardwareUnavailable, pins.Chip, err)
	}

	offsets := make([]int, 0, conditioning.ButtonCount+conditioning.JoystickCount+conditioning.SwitchCount)
	offsets = append(offsets, pins.Buttons[:]...)
	offsets = append(offsets, pins.Joystick[:]...)
	offsets = append(offsets, pins.Switches[:]...)

	lines, err := chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("%w: requesting input lines: %w", ErrHardwareUnavailable, err)
	}

	converter, err := openMCP3008(adc.SPIDev)
	if err != nil {
		lines.Close()
		chip.Close()
		return nil, err
	}

	return &HardwareReader{
		chip:        chip,
		lines:       lines,
		adc:         converter,
		adcChannels: adc.Channels,
	}, nil
}

// Read scans all digital lines and all ADC channels once. Raw GPIO
// values are inverted: the contacts short to ground, so raw 0 means
// logically active.
func (r *HardwareReader) Read() (conditioning.Frame, error) {
	var frame conditioning.Frame

	values := make([]int, conditioning.ButtonCount+conditioning.JoystickCount+conditioning.SwitchCount)
	if err := r.lines.Values(values); err != nil {
		return frame, fmt.Errorf("reading gpio lines: %w", err)
	}

	idx := 0
	for i := range frame.Buttons {
		frame.Buttons[i] = values[idx] == 0
		idx++
	}
	for i := range frame.Joystick {
		frame.Joystick[i] = values[idx] == 0
		idx++
	}
	for i := range frame.Switches {
		frame.Switches[i] = values[idx] == 0
		idx++
	}

	for i := range frame.Pots {
		sample, err := r.adc.read(r.adcChannels[i])
		if err != nil {
			return frame, err
		}
		frame.Pots[i] = sample
	}

	return frame, nil
}

// Close releases the GPIO lines and the SPI port.
func (r *HardwareReader) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing gpio lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing gpio chip: %w", err))
		}
	}
	if r.adc != nil {
		if err := r.adc.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing adc: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
