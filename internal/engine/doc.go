// Package engine runs the melodeck scan loop.
//
// The engine is the only component that touches a wall clock. Each
// tick it reads a frame from the input source, converts the current
// time to the wrapping millisecond domain, advances the conditioning
// processor, and lets the mapper turn confirmed transitions into MIDI
// events. Idle detection, the MQTT heartbeat and InfluxDB telemetry
// ride on the same loop at much lower rates.
//
// The loop core is driven by an injected tick channel and clock
// function, so tests execute scan cycles deterministically without
// sleeping.
//
// Remote panic requests (from the MQTT command topic or a signal
// handler) are queued through Panic and serviced on the loop
// goroutine, keeping all MIDI emission single-threaded.
package engine
