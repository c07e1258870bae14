// melodeck - MIDI performance controller daemon
//
// This is the main entry point for the melodeck controller. It scans a
// small physical control surface (buttons, joystick, toggle switches,
// potentiometers), conditions the raw reads and emits MIDI events:
//   - Hardware scanning via the GPIO character device and an MCP3008
//   - Debounced digital inputs, filtered analog inputs
//   - Optional MQTT status publishing and InfluxDB telemetry
//
// For the wiring and event model, see the package docs under internal/.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
	"github.com/mystery-melody-machine/melodeck/internal/engine"
	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/config"
	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/influxdb"
	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/logging"
	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/mqtt"
	"github.com/mystery-melody-machine/melodeck/internal/mapping"
	"github.com/mystery-melody-machine/melodeck/internal/midiout"
	"github.com/mystery-melody-machine/melodeck/internal/source"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting melodeck",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the input source
	src, err := buildSource(cfg)
	if err != nil {
		return fmt.Errorf("opening input source: %w", err)
	}
	defer func() {
		log.Info("closing input source")
		if closeErr := src.Close(); closeErr != nil {
			log.Error("error closing input source", "error", closeErr)
		}
	}()
	log.Info("input source ready", "driver", cfg.Source.Driver)

	// Open the MIDI sink
	sink, cleanup, err := buildSink(cfg, log)
	if err != nil {
		return fmt.Errorf("opening MIDI sink: %w", err)
	}
	defer cleanup()

	// Build the conditioning pipeline and event mapper
	proc := conditioning.NewProcessor(buildTuning(cfg))
	mapper := mapping.New(proc, sink, buildMap(cfg))

	eng := engine.New(src, proc, mapper, log, engine.Options{
		ScanPeriod: cfg.ScanPeriod(),
		Heartbeat:  cfg.HeartbeatInterval(),
		Telemetry:  cfg.TelemetryInterval(),
		QoS:        byte(cfg.MQTT.QoS),
	})
	log.Info("scan engine ready",
		"scan_hz", cfg.Controller.ScanHz,
		"idle_timeout_ms", cfg.Controller.IdleTimeoutMs,
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Remote panic: any message on the panic topic flushes all notes
		topics := mqtt.Topics{}
		if subErr := mqttClient.Subscribe(topics.SystemPanic(), byte(cfg.MQTT.QoS), func(topic string, _ []byte) error {
			log.Warn("remote panic requested", "topic", topic)
			eng.Panic()
			return nil
		}); subErr != nil {
			return fmt.Errorf("subscribing to panic topic: %w", subErr)
		}

		eng.SetStatusPublisher(mqttClient)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		eng.SetTelemetrySink(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Verify optional connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, entering scan loop")

	// Run the scan loop until the context is cancelled
	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("scan loop: %w", err)
	}

	log.Info("melodeck stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MELODECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MELODECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildSource opens the configured input driver. The fake driver
// returns a repeating neutral frame and exists for bench work on
// machines without the control surface attached.
func buildSource(cfg *config.Config) (source.Reader, error) {
	switch cfg.Source.Driver {
	case "fake":
		return source.NewFakeReader(), nil
	default:
		var pins source.Pins
		pins.Chip = cfg.Source.GPIO.Chip
		copy(pins.Buttons[:], cfg.Source.GPIO.ButtonPins)
		copy(pins.Joystick[:], cfg.Source.GPIO.JoystickPins)
		copy(pins.Switches[:], cfg.Source.GPIO.SwitchPins)

		var adc source.ADC
		adc.SPIDev = cfg.Source.ADC.SPIDev
		copy(adc.Channels[:], cfg.Source.ADC.Channels)

		return source.NewHardware(pins, adc)
	}
}

// buildSink opens the configured MIDI transport. The returned cleanup
// closes the port sink; the log sink holds no resources.
func buildSink(cfg *config.Config, log *logging.Logger) (midiout.Sink, func(), error) {
	if cfg.MIDI.Sink == "log" {
		return midiout.NewLogSink(log), func() {}, nil
	}

	port, err := midiout.OpenPort(cfg.MIDI.Port)
	if err != nil {
		return nil, nil, err
	}
	log.Info("MIDI port open", "port", port.PortName())
	cleanup := func() {
		log.Info("closing MIDI port")
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing MIDI port", "error", closeErr)
		}
	}
	return port, cleanup, nil
}

// buildTuning converts the validated configuration into conditioning
// parameters. Validate guarantees the pot table length, so the copy
// loops cannot run short.
func buildTuning(cfg *config.Config) conditioning.Tuning {
	t := conditioning.Tuning{
		ButtonDebounce:   conditioning.Millis(cfg.Controller.ButtonDebounceMs),
		SwitchDebounce:   conditioning.Millis(cfg.Controller.SwitchDebounceMs),
		JoystickDebounce: conditioning.Millis(cfg.Controller.JoystickDebounceMs),
		JoystickRearm:    conditioning.Millis(cfg.Controller.JoystickRearmMs),
		IdleTimeout:      conditioning.Millis(cfg.Controller.IdleTimeoutMs),
	}
	for i, p := range cfg.Pots {
		t.Pots[i] = conditioning.SmootherParams{
			Alpha:     p.Alpha,
			Deadband:  p.Deadband,
			RateLimit: conditioning.Millis(p.RateLimitMs),
		}
	}
	return t
}

// buildMap converts the validated MIDI tables into the mapper's
// fixed-size form.
func buildMap(cfg *config.Config) mapping.Map {
	m := mapping.Map{
		Channel:  cfg.MIDI.Channel,
		Velocity: cfg.MIDI.Velocity,
	}
	copy(m.ButtonNotes[:], cfg.MIDI.ButtonNotes)
	copy(m.JoystickCCs[:], cfg.MIDI.JoystickCCs)
	copy(m.SwitchCCs[:], cfg.MIDI.SwitchCCs)
	for i, p := range cfg.Pots {
		m.PotCCs[i] = p.CC
	}
	return m
}

// healthCheck verifies the optional infrastructure connections.
// Both clients may be nil when their subsystem is disabled.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
