package midiout

import (
	"errors"
	"testing"
)

// recordingLogger captures Info calls for LogSink tests.
type recordingLogger struct {
	msgs []string
	args [][]any
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}

// ============================================================================
// LogSink
// ============================================================================

func TestLogSink_LogsEveryEventKind(t *testing.T) {
	logger := &recordingLogger{}
	sink := NewLogSink(logger)

	if err := sink.NoteOn(60, 100, 1); err != nil {
		t.Fatalf("NoteOn() error: %v", err)
	}
	if err := sink.NoteOff(60, 0, 1); err != nil {
		t.Fatalf("NoteOff() error: %v", err)
	}
	if err := sink.ControlChange(10, 127, 1); err != nil {
		t.Fatalf("ControlChange() error: %v", err)
	}

	want := []string{"midi note on", "midi note off", "midi control change"}
	if len(logger.msgs) != len(want) {
		t.Fatalf("logged %d messages, want %d", len(logger.msgs), len(want))
	}
	for i, msg := range want {
		if logger.msgs[i] != msg {
			t.Errorf("message %d = %q, want %q", i, logger.msgs[i], msg)
		}
	}
}

// ============================================================================
// CaptureSink
// ============================================================================

func TestCaptureSink_RecordsInOrder(t *testing.T) {
	sink := NewCaptureSink()

	sink.NoteOn(62, 100, 1)
	sink.ControlChange(1, 64, 1)
	sink.NoteOff(62, 0, 1)

	want := []Event{
		{Kind: KindNoteOn, Data1: 62, Data2: 100, Channel: 1},
		{Kind: KindControlChange, Data1: 1, Data2: 64, Channel: 1},
		{Kind: KindNoteOff, Data1: 62, Data2: 0, Channel: 1},
	}

	if len(sink.Events) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(sink.Events), len(want))
	}
	for i, ev := range want {
		if sink.Events[i] != ev {
			t.Errorf("event %d = %+v, want %+v", i, sink.Events[i], ev)
		}
	}

	sink.Reset()
	if len(sink.Events) != 0 {
		t.Errorf("Reset() left %d events", len(sink.Events))
	}
}

func TestCaptureSink_ReturnsConfiguredError(t *testing.T) {
	sink := NewCaptureSink()
	sink.Err = errors.New("transport down")

	if err := sink.NoteOn(60, 100, 1); err == nil {
		t.Fatal("NoteOn() should return the configured error")
	}

	// The event is still recorded before the error is returned.
	if len(sink.Events) != 1 {
		t.Errorf("recorded %d events, want 1", len(sink.Events))
	}
}

// ============================================================================
// EventKind
// ============================================================================

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{KindNoteOn, "note_on"},
		{KindNoteOff, "note_off"},
		{KindControlChange, "control_change"},
		{EventKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
