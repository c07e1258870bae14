package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePotSample records the state of one analog channel.
//
// Raw and filtered values live in the 10-bit ADC domain, the conditioned
// value in the 7-bit MIDI domain. Comparing the three over time is how
// filter tuning (alpha, deadband) gets validated against real pots.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WritePotSample(0, 512, 509, 63)
func (c *Client) WritePotSample(channel int, raw uint16, filtered uint16, value uint8) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"pot_sample",
		map[string]string{
			"channel": potChannelTag(channel),
		},
		map[string]interface{}{
			"raw":      int64(raw),
			"filtered": int64(filtered),
			"value":    int64(value),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEventCounts records cumulative MIDI event counters.
//
// Counters only ever increase within a run; rate() queries over this
// measurement show how busy the performer is.
func (c *Client) WriteEventCounts(noteOn, noteOff, controlChange uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"midi_events",
		nil,
		map[string]interface{}{
			"note_on":        int64(noteOn),
			"note_off":       int64(noteOff),
			"control_change": int64(controlChange),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCycleStats records scan loop timing.
//
// A cycle duration approaching the scan period means the loop is
// starting to miss ticks.
func (c *Client) WriteCycleStats(cycleDuration time.Duration, idle bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"scan_cycle",
		nil,
		map[string]interface{}{
			"duration_us": cycleDuration.Microseconds(),
			"idle":        idle,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}

// potChannelTag formats a pot channel index as a tag value.
func potChannelTag(channel int) string {
	const digits = "0123456789"
	if channel >= 0 && channel < len(digits) {
		return "pot_" + string(digits[channel])
	}
	return "pot_unknown"
}
