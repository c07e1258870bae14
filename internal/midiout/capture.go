package midiout

// CaptureSink records events in emission order. It is the test double
// for the mapping and engine layers.
type CaptureSink struct {
	// Events holds everything emitted so far, in order.
	Events []Event

	// Err, if set, is returned by every method after recording.
	Err error
}

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) NoteOn(note, velocity, channel uint8) error {
	s.Events = append(s.Events, Event{Kind: KindNoteOn, Data1: note, Data2: velocity, Channel: channel})
	return s.Err
}

func (s *CaptureSink) NoteOff(note, velocity, channel uint8) error {
	s.Events = append(s.Events, Event{Kind: KindNoteOff, Data1: note, Data2: velocity, Channel: channel})
	return s.Err
}

func (s *CaptureSink) ControlChange(controller, value, channel uint8) error {
	s.Events = append(s.Events, Event{Kind: KindControlChange, Data1: controller, Data2: value, Channel: channel})
	return s.Err
}

// Reset discards recorded events.
func (s *CaptureSink) Reset() {
	s.Events = nil
}
