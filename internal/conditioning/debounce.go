package conditioning

// Debouncer removes contact bounce from a single digital channel.
//
// The policy is quiet-period-since-most-recent-edge: every observed raw
// edge restarts the settle window, and the stable value commits only
// once the raw value has held constant for the full window. This is not
// a minimum run-length counter; a glitch arriving just before the
// window expires restarts the wait.
//
// Not safe for concurrent use; the whole conditioning layer runs in a
// single execution context.
type Debouncer struct {
	window   Millis
	raw      bool
	stable   bool
	changed  bool
	lastEdge Millis
}

// NewDebouncer creates a debouncer with the given settle window.
// A zero window commits every raw edge immediately.
func NewDebouncer(window Millis) Debouncer {
	return Debouncer{window: window}
}

// Update feeds one raw reading into the debouncer and reports whether
// the stable value changed on this call. The stable value changes at
// most once per call, and never before the raw value has held for the
// full window since its most recent edge.
func (d *Debouncer) Update(raw bool, now Millis) bool {
	d.changed = false

	if raw != d.raw {
		d.raw = raw
		d.lastEdge = now
	}

	// Unsigned subtraction keeps this correct across timestamp rollover.
	if now-d.lastEdge >= d.window {
		if d.raw != d.stable {
			d.stable = d.raw
			d.changed = true
		}
	}

	return d.changed
}

// Pressed returns the current stable value.
func (d *Debouncer) Pressed() bool { return d.stable }

// JustPressed reports a rising edge committed by the most recent
// Update call. The flag is not sticky; a caller polling less often
// than it calls Update loses transient edges.
func (d *Debouncer) JustPressed() bool { return d.stable && d.changed }

// JustReleased reports a falling edge committed by the most recent
// Update call.
func (d *Debouncer) JustReleased() bool { return !d.stable && d.changed }

// Reset zeroes all state.
func (d *Debouncer) Reset() {
	d.raw = false
	d.stable = false
	d.changed = false
	d.lastEdge = 0
}

// Seed adopts an initial reading as both raw and stable state so the
// first real scan after boot produces no false edge.
func (d *Debouncer) Seed(value bool, now Millis) {
	d.raw = value
	d.stable = value
	d.changed = false
	d.lastEdge = now
}
