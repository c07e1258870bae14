// Package midiout defines the output event sink for the controller and
// its interchangeable transports.
//
// The mapping layer talks to the Sink interface only; which transport
// is behind it is decided once at construction time:
//
//   - PortSink: a real MIDI output port via gomidi (rtmidi driver)
//   - LogSink: events written to the structured log
//   - CaptureSink: in-memory recording for deterministic tests
//
// Events are handed to the sink in emission order. A sink failure is
// the sink's problem: it is logged by the caller but never surfaced
// back into conditioning state.
package midiout
