// Package conditioning turns noisy electromechanical and analog sensor
// readings into clean, rate-limited, edge-triggered state for the event
// mapping layer.
//
// # Components
//
//   - Debouncer: per-channel digital state machine removing contact
//     bounce (quiet-period-since-most-recent-edge policy)
//   - Smoother: per-channel fixed-point EMA filter with deadband and
//     rate-limit emission policy for analog channels
//   - Processor: runs one conditioning pass per scan cycle over the
//     whole fixed channel set and tracks surface activity / idleness
//
// # Timing model
//
// The package never reads a clock. Every operation takes a caller-
// supplied Millis timestamp; Millis is an unsigned wrapping millisecond
// counter and all elapsed-time comparisons use unsigned subtraction so
// they remain correct across rollover. This keeps the whole layer
// deterministic and directly unit-testable.
//
// # Execution model
//
// Everything runs in a single cooperative execution context: one
// conditioning pass per cycle, fixed channel order, no blocking, no
// locking. Work per cycle is O(channel count) and sized for a 1 kHz
// polling budget.
//
// # Usage
//
//	proc := conditioning.NewProcessor(tuning)
//	proc.Seed(firstFrame, now) // no false edges on boot
//	for each cycle {
//	    proc.Update(frame, now)
//	    // read stable state via accessors
//	}
package conditioning
