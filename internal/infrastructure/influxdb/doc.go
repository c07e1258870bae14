// Package influxdb provides InfluxDB connectivity for melodeck.
//
// It wraps the official influxdb-client-go v2 library with melodeck-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Analog filter tuning (raw vs filtered vs conditioned pot values)
//   - MIDI event counters
//   - Scan loop timing
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "melodeck",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record one pot's state
//	client.WritePotSample(0, 512, 509, 63)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// Telemetry never runs at scan rate; the engine samples on its own,
// much slower, interval.
package influxdb
