package midiout

// Logger is the logging interface used by LogSink.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
}

// LogSink is a transport that writes every event to the structured
// log instead of a MIDI port. Useful on hardware without a synth
// attached and during bring-up.
type LogSink struct {
	logger Logger
}

// NewLogSink creates a logging transport.
func NewLogSink(logger Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) NoteOn(note, velocity, channel uint8) error {
	s.logger.Info("midi note on", "note", note, "velocity", velocity, "channel", channel)
	return nil
}

func (s *LogSink) NoteOff(note, velocity, channel uint8) error {
	s.logger.Info("midi note off", "note", note, "velocity", velocity, "channel", channel)
	return nil
}

func (s *LogSink) ControlChange(controller, value, channel uint8) error {
	s.logger.Info("midi control change", "controller", controller, "value", value, "channel", channel)
	return nil
}
