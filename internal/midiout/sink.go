package midiout

// Sink accepts the discrete output events produced by the mapping
// layer and is responsible for actual transport. Implementations:
// PortSink (real MIDI port), LogSink (structured logging transport),
// CaptureSink (test double). The sink is selected at construction time,
// never by conditional compilation.
//
// Channel is the human MIDI channel, 1-16. Sink errors are the sink's
// responsibility; the mapping layer never feeds them back into
// conditioning state.
type Sink interface {
	NoteOn(note, velocity, channel uint8) error
	NoteOff(note, velocity, channel uint8) error
	ControlChange(controller, value, channel uint8) error
}

// EventKind discriminates captured events.
type EventKind uint8

const (
	KindNoteOn EventKind = iota
	KindNoteOff
	KindControlChange
)

// String returns the kind name for logging and status payloads.
func (k EventKind) String() string {
	switch k {
	case KindNoteOn:
		return "note_on"
	case KindNoteOff:
		return "note_off"
	case KindControlChange:
		return "control_change"
	}
	return "unknown"
}

// Event is one emitted output event in a transport-neutral form.
// For note events Data1 is the note and Data2 the velocity; for
// control changes Data1 is the controller and Data2 the value.
type Event struct {
	Kind    EventKind
	Data1   uint8
	Data2   uint8
	Channel uint8
}
