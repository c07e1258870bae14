// Package mapping translates conditioned input state into discrete
// output events.
//
// The Mapper compares the processor's stable view against its own
// last-seen snapshot once per invocation and emits at most one event
// per channel per detected transition:
//
//   - button active/inactive edge      -> note-on / note-off
//   - switch toggle (either direction) -> control-change 127 / 0
//   - joystick press                   -> control-change 127 pulse,
//     never a release event
//   - pot significant change           -> control-change with the new
//     conditioned value
//
// Because the snapshot lives in the mapper, not the processor, the
// mapper can run at a different cadence than the conditioning pass
// without missing latched state transitions (joystick pulses are the
// exception: their stable state is transient by design).
//
// AllNotesOff is the explicit panic operation for fail-safe shutdown.
package mapping
