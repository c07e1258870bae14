package mapping

import (
	"testing"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
	"github.com/mystery-melody-machine/melodeck/internal/midiout"
)

func testTables() Map {
	m := Map{Channel: 1, Velocity: 100}
	for i := range m.ButtonNotes {
		m.ButtonNotes[i] = uint8(60 + i)
	}
	for i := range m.PotCCs {
		m.PotCCs[i] = uint8(1 + i)
	}
	for i := range m.JoystickCCs {
		m.JoystickCCs[i] = uint8(10 + i)
	}
	for i := range m.SwitchCCs {
		m.SwitchCCs[i] = uint8(20 + i)
	}
	return m
}

func testTuning() conditioning.Tuning {
	t := conditioning.Tuning{
		ButtonDebounce:   5,
		SwitchDebounce:   5,
		JoystickDebounce: 0,
		JoystickRearm:    120,
		IdleTimeout:      30000,
	}
	for i := range t.Pots {
		t.Pots[i] = conditioning.SmootherParams{Alpha: 255, Deadband: 2, RateLimit: 0}
	}
	return t
}

func newTestMapper() (*conditioning.Processor, *Mapper, *midiout.CaptureSink) {
	proc := conditioning.NewProcessor(testTuning())
	proc.Seed(conditioning.Frame{}, 0)
	sink := midiout.NewCaptureSink()
	m := New(proc, sink, testTables())
	m.Seed()
	return proc, m, sink
}

func TestMapper_ButtonPressAndRelease(t *testing.T) {
	proc, m, sink := newTestMapper()

	var frame conditioning.Frame
	frame.Buttons[2] = true
	proc.Update(frame, 0)
	proc.Update(frame, 6)
	m.Process()

	if len(sink.Events) != 1 {
		t.Fatalf("got %d events after press, want 1", len(sink.Events))
	}
	want := midiout.Event{Kind: midiout.KindNoteOn, Data1: 62, Data2: 100, Channel: 1}
	if sink.Events[0] != want {
		t.Errorf("press event = %+v, want %+v", sink.Events[0], want)
	}

	frame.Buttons[2] = false
	proc.Update(frame, 10)
	proc.Update(frame, 16)
	m.Process()

	if len(sink.Events) != 2 {
		t.Fatalf("got %d events after release, want 2", len(sink.Events))
	}
	want = midiout.Event{Kind: midiout.KindNoteOff, Data1: 62, Data2: 0, Channel: 1}
	if sink.Events[1] != want {
		t.Errorf("release event = %+v, want %+v", sink.Events[1], want)
	}
}

func TestMapper_SwitchTogglesEmitBothWays(t *testing.T) {
	proc, m, sink := newTestMapper()

	var frame conditioning.Frame
	frame.Switches[1] = true
	proc.Update(frame, 0)
	proc.Update(frame, 6)
	m.Process()

	frame.Switches[1] = false
	proc.Update(frame, 10)
	proc.Update(frame, 16)
	m.Process()

	if len(sink.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(sink.Events))
	}
	on := midiout.Event{Kind: midiout.KindControlChange, Data1: 21, Data2: 127, Channel: 1}
	off := midiout.Event{Kind: midiout.KindControlChange, Data1: 21, Data2: 0, Channel: 1}
	if sink.Events[0] != on {
		t.Errorf("on-toggle event = %+v, want %+v", sink.Events[0], on)
	}
	if sink.Events[1] != off {
		t.Errorf("off-toggle event = %+v, want %+v", sink.Events[1], off)
	}
}

func TestMapper_JoystickPulseWithoutRelease(t *testing.T) {
	proc, m, sink := newTestMapper()

	var frame conditioning.Frame
	frame.Joystick[conditioning.JoyLeft] = true
	proc.Update(frame, 100)
	m.Process()

	if len(sink.Events) != 1 {
		t.Fatalf("got %d events after press, want 1", len(sink.Events))
	}
	want := midiout.Event{Kind: midiout.KindControlChange, Data1: 12, Data2: 127, Channel: 1}
	if sink.Events[0] != want {
		t.Errorf("pulse event = %+v, want %+v", sink.Events[0], want)
	}

	// Held through the rearm window, then released: no further events.
	proc.Update(frame, 150)
	m.Process()
	frame.Joystick[conditioning.JoyLeft] = false
	proc.Update(frame, 160)
	m.Process()

	if len(sink.Events) != 1 {
		t.Errorf("got %d events after hold and release, want still 1 (no release event)", len(sink.Events))
	}
}

func TestMapper_PotEmitsConditionedValue(t *testing.T) {
	proc, m, sink := newTestMapper()

	var frame conditioning.Frame
	frame.Pots[0] = 1023
	proc.Update(frame, 10)
	m.Process()

	if len(sink.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.Events))
	}
	e := sink.Events[0]
	if e.Kind != midiout.KindControlChange || e.Data1 != 1 {
		t.Errorf("pot event = %+v, want control change on CC 1", e)
	}
	if e.Data2 != proc.PotValue(0) {
		t.Errorf("pot event value = %d, want conditioned value %d", e.Data2, proc.PotValue(0))
	}

	// Same conditioned value again: no duplicate event.
	proc.Update(frame, 20)
	m.Process()
	for _, e := range sink.Events[1:] {
		if e.Data2 == sink.Events[0].Data2 {
			t.Errorf("duplicate pot event emitted: %+v", e)
		}
	}
}

func TestMapper_SingleProcessPerManyUpdates(t *testing.T) {
	proc, m, sink := newTestMapper()

	// The mapper runs at a slower cadence than the conditioning pass;
	// a press confirmed several cycles ago still emits exactly once.
	var frame conditioning.Frame
	frame.Buttons[0] = true
	for now := conditioning.Millis(0); now <= 50; now += 5 {
		proc.Update(frame, now)
	}
	m.Process()
	m.Process()

	if len(sink.Events) != 1 {
		t.Errorf("got %d events, want exactly 1", len(sink.Events))
	}
}

func TestMapper_SeedSuppressesBootEvents(t *testing.T) {
	proc := conditioning.NewProcessor(testTuning())

	var boot conditioning.Frame
	boot.Buttons[4] = true
	boot.Switches[2] = true
	boot.Pots[3] = 700
	proc.Seed(boot, 0)

	sink := midiout.NewCaptureSink()
	m := New(proc, sink, testTables())
	m.Seed()

	proc.Update(boot, 1)
	m.Process()

	if len(sink.Events) != 0 {
		t.Errorf("got %d events on first cycle after boot, want 0", len(sink.Events))
	}
}

func TestMapper_AllNotesOff(t *testing.T) {
	proc, m, sink := newTestMapper()

	// Establish one held button so the snapshot is non-trivial.
	var frame conditioning.Frame
	frame.Buttons[5] = true
	proc.Update(frame, 0)
	proc.Update(frame, 6)
	m.Process()
	sink.Reset()

	m.AllNotesOff()

	if len(sink.Events) != conditioning.ButtonCount {
		t.Fatalf("got %d events, want %d (one note-off per button)", len(sink.Events), conditioning.ButtonCount)
	}
	for i, e := range sink.Events {
		want := midiout.Event{Kind: midiout.KindNoteOff, Data1: uint8(60 + i), Data2: 0, Channel: 1}
		if e != want {
			t.Errorf("event %d = %+v, want %+v", i, e, want)
		}
	}

	// The snapshot was reset: the still-held button re-emits note-on.
	sink.Reset()
	m.Process()
	if len(sink.Events) != 1 || sink.Events[0].Kind != midiout.KindNoteOn {
		t.Errorf("after panic, held button did not re-emit note-on: %+v", sink.Events)
	}
}

func TestMapper_CountsTrackEmissions(t *testing.T) {
	proc, m, _ := newTestMapper()

	var frame conditioning.Frame
	frame.Buttons[0] = true
	proc.Update(frame, 0)
	proc.Update(frame, 6)
	m.Process()

	frame.Buttons[0] = false
	proc.Update(frame, 10)
	proc.Update(frame, 16)
	m.Process()

	counts := m.Counts()
	if counts.NoteOn != 1 || counts.NoteOff != 1 {
		t.Errorf("counts = %+v, want one note-on and one note-off", counts)
	}
	if counts.Total() != 2 {
		t.Errorf("Total() = %d, want 2", counts.Total())
	}
}

func TestMapper_SinkErrorDoesNotStallState(t *testing.T) {
	proc, m, sink := newTestMapper()
	sink.Err = errTransport

	var frame conditioning.Frame
	frame.Buttons[0] = true
	proc.Update(frame, 0)
	proc.Update(frame, 6)
	m.Process()
	m.Process()

	// The failed emission is the sink's problem: the snapshot advanced
	// and the event is not retried.
	if len(sink.Events) != 1 {
		t.Errorf("got %d emission attempts, want 1", len(sink.Events))
	}
}

var errTransport = midiout.ErrPortNotFound
