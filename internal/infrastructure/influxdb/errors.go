package influxdb

import "errors"

// Sentinel errors for the telemetry store. Telemetry is strictly
// optional: callers treat ErrDisabled as "run without it" rather than
// a startup failure.
var (
	// ErrNotConnected indicates the client has no InfluxDB connection.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt
	// failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a synchronous write failed. Batched
	// writes report asynchronously through the error callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled indicates telemetry is switched off in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
