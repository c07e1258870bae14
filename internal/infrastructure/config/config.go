package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
)

// Config is the root configuration structure for melodeck.
// All configuration is loaded from YAML and can be overridden by
// environment variables. It is static: nothing is reloaded at runtime.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Pots       []PotConfig      `yaml:"pots"`
	MIDI       MIDIConfig       `yaml:"midi"`
	Source     SourceConfig     `yaml:"source"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ControllerConfig contains the scan loop and conditioning timing.
// All durations are milliseconds, matching the wrapping millisecond
// timestamps used by the conditioning layer.
type ControllerConfig struct {
	// ScanHz is the polling rate of the scan loop.
	ScanHz int `yaml:"scan_hz"`

	ButtonDebounceMs   uint32 `yaml:"button_debounce_ms"`
	SwitchDebounceMs   uint32 `yaml:"switch_debounce_ms"`
	JoystickDebounceMs uint32 `yaml:"joystick_debounce_ms"`

	// JoystickRearmMs is the suppression window after a confirmed
	// joystick press. The stick cannot retrigger until it expires.
	JoystickRearmMs uint32 `yaml:"joystick_rearm_ms"`

	IdleTimeoutMs uint32 `yaml:"idle_timeout_ms"`
}

// PotConfig tunes one analog channel. A zero rate limit degrades to
// "always eligible to emit"; it is not an error.
type PotConfig struct {
	// CC is the MIDI controller number for this pot.
	CC uint8 `yaml:"cc"`

	// Alpha is the smoothing coefficient, 0-255 (64 is roughly 0.25).
	Alpha uint8 `yaml:"alpha"`

	// Deadband is the minimum MIDI-domain change treated as significant.
	Deadband uint8 `yaml:"deadband"`

	RateLimitMs uint32 `yaml:"rate_limit_ms"`
}

// MIDIConfig contains the output sink selection and event tables.
type MIDIConfig struct {
	// Sink selects the transport: "port" (real MIDI output) or "log"
	// (structured-log transport for bring-up without a synth).
	Sink string `yaml:"sink"`

	// Port is a substring matched against MIDI output port names.
	Port string `yaml:"port"`

	// Channel is the MIDI channel, 1-16.
	Channel uint8 `yaml:"channel"`

	// Velocity is the note-on velocity for button presses.
	Velocity uint8 `yaml:"velocity"`

	ButtonNotes []uint8 `yaml:"button_notes"`
	JoystickCCs []uint8 `yaml:"joystick_ccs"`
	SwitchCCs   []uint8 `yaml:"switch_ccs"`
}

// SourceConfig contains the input source selection and wiring.
type SourceConfig struct {
	// Driver selects the input source: "gpio" (real hardware) or
	// "fake" (neutral frames, for development off-target).
	Driver string `yaml:"driver"`

	GPIO GPIOConfig `yaml:"gpio"`
	ADC  ADCConfig  `yaml:"adc"`
}

// GPIOConfig contains the digital wiring on the GPIO character device.
type GPIOConfig struct {
	Chip         string `yaml:"chip"`
	ButtonPins   []int  `yaml:"button_pins"`
	JoystickPins []int  `yaml:"joystick_pins"`
	SwitchPins   []int  `yaml:"switch_pins"`
}

// ADCConfig contains the analog wiring (MCP3008 on SPI).
type ADCConfig struct {
	SPIDev   string `yaml:"spi_dev"`
	Channels []int  `yaml:"channels"`
}

// MQTTConfig contains the optional status broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// HeartbeatSeconds is how often the activity heartbeat is
	// published. Zero disables the heartbeat.
	HeartbeatSeconds int `yaml:"heartbeat_seconds"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains the optional filter-tuning telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// SampleSeconds is how often conditioned pot values are recorded.
	SampleSeconds int `yaml:"sample_seconds"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (the original hardware's tuning)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern MELODECK_SECTION_KEY,
// e.g. MELODECK_MQTT_HOST, MELODECK_MIDI_PORT.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns configuration defaults matching the original
// control surface: 1 kHz scan, 5 ms debounce, 120 ms joystick rearm,
// 30 s idle timeout, notes 60-69, pot CCs 1-6.
func defaultConfig() *Config {
	pots := make([]PotConfig, conditioning.PotCount)
	for i := range pots {
		pots[i] = PotConfig{
			CC:          uint8(1 + i),
			Alpha:       64,
			Deadband:    2,
			RateLimitMs: 15,
		}
	}

	return &Config{
		Controller: ControllerConfig{
			ScanHz:             1000,
			ButtonDebounceMs:   5,
			SwitchDebounceMs:   5,
			JoystickDebounceMs: 5,
			JoystickRearmMs:    120,
			IdleTimeoutMs:      30000,
		},
		Pots: pots,
		MIDI: MIDIConfig{
			Sink:        "port",
			Port:        "melodeck",
			Channel:     1,
			Velocity:    100,
			ButtonNotes: []uint8{60, 61, 62, 63, 64, 65, 66, 67, 68, 69},
			JoystickCCs: []uint8{10, 11, 12, 13},
			SwitchCCs:   []uint8{20, 21, 22},
		},
		Source: SourceConfig{
			Driver: "gpio",
			GPIO: GPIOConfig{
				Chip:         "gpiochip0",
				ButtonPins:   []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
				JoystickPins: []int{12, 20, 14, 19},
				SwitchPins:   []int{16, 17, 18},
			},
			ADC: ADCConfig{
				SPIDev:   "/dev/spidev0.0",
				Channels: []int{0, 1, 2, 3, 4, 5},
			},
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "melodeck",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			HeartbeatSeconds: 30,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
			SampleSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Credentials in particular should come from the
// environment, not the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MELODECK_MIDI_PORT"); v != "" {
		cfg.MIDI.Port = v
	}
	if v := os.Getenv("MELODECK_MIDI_SINK"); v != "" {
		cfg.MIDI.Sink = v
	}
	if v := os.Getenv("MELODECK_SOURCE_DRIVER"); v != "" {
		cfg.Source.Driver = v
	}

	if v := os.Getenv("MELODECK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MELODECK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MELODECK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("MELODECK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("MELODECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Table lengths must match the fixed channel-set sizes: the hardware
// is statically sized and channel index is the only addressing
// mechanism. Degraded tuning values (zero debounce, zero rate limit)
// are allowed and are not validation errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Controller.ScanHz < 1 || c.Controller.ScanHz > 10000 {
		errs = append(errs, "controller.scan_hz must be between 1 and 10000")
	}

	if len(c.Pots) != conditioning.PotCount {
		errs = append(errs, fmt.Sprintf("pots must have exactly %d entries", conditioning.PotCount))
	}
	for i, pot := range c.Pots {
		if pot.CC > 127 {
			errs = append(errs, fmt.Sprintf("pots[%d].cc must be 0-127", i))
		}
	}

	switch c.MIDI.Sink {
	case "port", "log":
	default:
		errs = append(errs, `midi.sink must be "port" or "log"`)
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		errs = append(errs, "midi.channel must be 1-16")
	}
	if c.MIDI.Velocity > 127 {
		errs = append(errs, "midi.velocity must be 0-127")
	}
	if len(c.MIDI.ButtonNotes) != conditioning.ButtonCount {
		errs = append(errs, fmt.Sprintf("midi.button_notes must have exactly %d entries", conditioning.ButtonCount))
	}
	if len(c.MIDI.JoystickCCs) != conditioning.JoystickCount {
		errs = append(errs, fmt.Sprintf("midi.joystick_ccs must have exactly %d entries", conditioning.JoystickCount))
	}
	if len(c.MIDI.SwitchCCs) != conditioning.SwitchCount {
		errs = append(errs, fmt.Sprintf("midi.switch_ccs must have exactly %d entries", conditioning.SwitchCount))
	}
	for i, n := range c.MIDI.ButtonNotes {
		if n > 127 {
			errs = append(errs, fmt.Sprintf("midi.button_notes[%d] must be 0-127", i))
		}
	}

	switch c.Source.Driver {
	case "gpio":
		if len(c.Source.GPIO.ButtonPins) != conditioning.ButtonCount {
			errs = append(errs, fmt.Sprintf("source.gpio.button_pins must have exactly %d entries", conditioning.ButtonCount))
		}
		if len(c.Source.GPIO.JoystickPins) != conditioning.JoystickCount {
			errs = append(errs, fmt.Sprintf("source.gpio.joystick_pins must have exactly %d entries", conditioning.JoystickCount))
		}
		if len(c.Source.GPIO.SwitchPins) != conditioning.SwitchCount {
			errs = append(errs, fmt.Sprintf("source.gpio.switch_pins must have exactly %d entries", conditioning.SwitchCount))
		}
		if len(c.Source.ADC.Channels) != conditioning.PotCount {
			errs = append(errs, fmt.Sprintf("source.adc.channels must have exactly %d entries", conditioning.PotCount))
		}
	case "fake":
	default:
		errs = append(errs, `source.driver must be "gpio" or "fake"`)
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set MELODECK_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ScanPeriod returns the scan loop period.
func (c *Config) ScanPeriod() time.Duration {
	return time.Second / time.Duration(c.Controller.ScanHz)
}

// HeartbeatInterval returns the MQTT heartbeat interval. Zero means
// disabled.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.MQTT.HeartbeatSeconds) * time.Second
}

// TelemetryInterval returns the pot telemetry sampling interval.
// Zero means disabled.
func (c *Config) TelemetryInterval() time.Duration {
	return time.Duration(c.InfluxDB.SampleSeconds) * time.Second
}
