package midiout

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver
)

// PortSink sends events to a real MIDI output port (ALSA on Linux,
// CoreMIDI on macOS) via gomidi.
type PortSink struct {
	port drivers.Out
	send func(msg gomidi.Message) error
}

// OpenPort opens the first MIDI output port whose name contains the
// given substring and returns a sink bound to it.
func OpenPort(name string) (*PortSink, error) {
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPortNotFound, name, err)
	}

	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("opening MIDI port %q: %w", port.String(), err)
	}

	return &PortSink{port: port, send: send}, nil
}

// PortName returns the resolved name of the open port.
func (s *PortSink) PortName() string {
	return s.port.String()
}

// NoteOn sends a note-on message.
func (s *PortSink) NoteOn(note, velocity, channel uint8) error {
	return s.send(gomidi.NoteOn(wireChannel(channel), note, velocity))
}

// NoteOff sends a note-off message with release velocity.
func (s *PortSink) NoteOff(note, velocity, channel uint8) error {
	return s.send(gomidi.NoteOffVelocity(wireChannel(channel), note, velocity))
}

// ControlChange sends a control-change message.
func (s *PortSink) ControlChange(controller, value, channel uint8) error {
	return s.send(gomidi.ControlChange(wireChannel(channel), controller, value))
}

// Close closes the underlying port and the MIDI driver.
func (s *PortSink) Close() error {
	err := s.port.Close()
	gomidi.CloseDriver()
	return err
}

// wireChannel converts the human channel (1-16) to the wire channel
// (0-15) gomidi expects.
func wireChannel(channel uint8) uint8 {
	if channel == 0 {
		return 0
	}
	return channel - 1
}
