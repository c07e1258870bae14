package mapping

import (
	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
	"github.com/mystery-melody-machine/melodeck/internal/midiout"
)

// pulseValue is the control value sent for a joystick pulse and for a
// switch in its on position.
const pulseValue = 127

// Logger defines the logging interface used by the Mapper.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Map holds the static channel-to-event tables.
type Map struct {
	// Channel is the MIDI channel (1-16) for every emitted event.
	Channel uint8

	// Velocity is the note-on velocity for button presses.
	Velocity uint8

	ButtonNotes [conditioning.ButtonCount]uint8
	PotCCs      [conditioning.PotCount]uint8
	JoystickCCs [conditioning.JoystickCount]uint8
	SwitchCCs   [conditioning.SwitchCount]uint8
}

// EventCounts tallies emitted events per kind, for heartbeat and
// telemetry payloads.
type EventCounts struct {
	NoteOn        uint64
	NoteOff       uint64
	ControlChange uint64
}

// Total returns the number of events emitted since startup.
func (c EventCounts) Total() uint64 {
	return c.NoteOn + c.NoteOff + c.ControlChange
}

// Mapper diffs the processor's stable view against its own last-seen
// snapshot and emits discrete events to the sink. The snapshot is
// independent of the processor's per-cycle flags, so the mapper
// tolerates being invoked at a different cadence than the conditioning
// pass.
//
// At most one event per channel is emitted per detected transition.
type Mapper struct {
	proc   *conditioning.Processor
	sink   midiout.Sink
	tables Map
	logger Logger

	lastButtons  [conditioning.ButtonCount]bool
	lastSwitches [conditioning.SwitchCount]bool
	lastJoystick [conditioning.JoystickCount]bool
	lastPots     [conditioning.PotCount]uint8

	counts EventCounts
}

// New creates a mapper reading from proc and emitting to sink.
func New(proc *conditioning.Processor, sink midiout.Sink, tables Map) *Mapper {
	return &Mapper{
		proc:   proc,
		sink:   sink,
		tables: tables,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the mapper.
func (m *Mapper) SetLogger(logger Logger) {
	m.logger = logger
}

// Seed aligns the mapper's snapshot with the processor's current
// stable view so the first Process call after boot emits nothing.
func (m *Mapper) Seed() {
	for i := range m.lastButtons {
		m.lastButtons[i] = m.proc.ButtonState(i)
	}
	for i := range m.lastSwitches {
		m.lastSwitches[i] = m.proc.SwitchState(i)
	}
	for i := range m.lastJoystick {
		m.lastJoystick[i] = m.proc.JoystickState(conditioning.JoystickDir(i))
	}
	for i := range m.lastPots {
		m.lastPots[i] = m.proc.PotValue(i)
	}
}

// Process diffs the conditioned state once and emits events in a fixed
// order: buttons, pots, joystick, switches, each in index order.
func (m *Mapper) Process() {
	m.processButtons()
	m.processPots()
	m.processJoystick()
	m.processSwitches()
}

// Counts returns the per-kind event totals since startup.
func (m *Mapper) Counts() EventCounts {
	return m.counts
}

func (m *Mapper) processButtons() {
	for i := range m.lastButtons {
		state := m.proc.ButtonState(i)
		if state == m.lastButtons[i] {
			continue
		}

		note := m.tables.ButtonNotes[i]
		if state {
			m.emitNoteOn(note, m.tables.Velocity)
			m.logger.Debug("button pressed", "button", i, "note", note)
		} else {
			m.emitNoteOff(note, 0)
			m.logger.Debug("button released", "button", i, "note", note)
		}
		m.lastButtons[i] = state
	}
}

func (m *Mapper) processPots() {
	for i := range m.lastPots {
		value := m.proc.PotValue(i)
		if !m.proc.PotChanged(i) || value == m.lastPots[i] {
			continue
		}

		m.emitControlChange(m.tables.PotCCs[i], value)
		m.logger.Debug("pot moved", "pot", i, "cc", m.tables.PotCCs[i], "value", value)
		m.lastPots[i] = value
	}
}

func (m *Mapper) processJoystick() {
	for i := range m.lastJoystick {
		state := m.proc.JoystickState(conditioning.JoystickDir(i))
		if state && !m.lastJoystick[i] {
			// Single pulse per press; the release never emits.
			m.emitControlChange(m.tables.JoystickCCs[i], pulseValue)
			m.logger.Debug("joystick pressed", "direction", conditioning.JoystickDir(i).String())
		}
		m.lastJoystick[i] = state
	}
}

func (m *Mapper) processSwitches() {
	for i := range m.lastSwitches {
		state := m.proc.SwitchState(i)
		if state == m.lastSwitches[i] {
			continue
		}

		value := uint8(0)
		if state {
			value = pulseValue
		}
		m.emitControlChange(m.tables.SwitchCCs[i], value)
		m.logger.Debug("switch toggled", "switch", i, "on", state)
		m.lastSwitches[i] = state
	}
}

// AllNotesOff emits a note-off for every button note unconditionally
// and resets the button snapshot, independent of actual hardware
// state. This is the fail-safe "all sound off" panic operation.
func (m *Mapper) AllNotesOff() {
	for i, note := range m.tables.ButtonNotes {
		m.emitNoteOff(note, 0)
		m.lastButtons[i] = false
	}
	m.logger.Debug("all notes off")
}

func (m *Mapper) emitNoteOn(note, velocity uint8) {
	m.counts.NoteOn++
	if err := m.sink.NoteOn(note, velocity, m.tables.Channel); err != nil {
		m.logger.Warn("sink rejected note on", "note", note, "error", err)
	}
}

func (m *Mapper) emitNoteOff(note, velocity uint8) {
	m.counts.NoteOff++
	if err := m.sink.NoteOff(note, velocity, m.tables.Channel); err != nil {
		m.logger.Warn("sink rejected note off", "note", note, "error", err)
	}
}

func (m *Mapper) emitControlChange(controller, value uint8) {
	m.counts.ControlChange++
	if err := m.sink.ControlChange(controller, value, m.tables.Channel); err != nil {
		m.logger.Warn("sink rejected control change", "controller", controller, "error", err)
	}
}
