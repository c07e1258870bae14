package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/config"
	"github.com/mystery-melody-machine/melodeck/internal/source"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("MELODECK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_FakeDriverStartupAndShutdown runs the full daemon against the
// fake input driver and the logging MIDI sink until the context
// expires. No hardware or brokers are needed.
func TestRun_FakeDriverStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
source:
  driver: fake

midi:
  sink: log

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: warn
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("MELODECK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("MELODECK_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("MELODECK_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestBuildSource_Fake verifies the fake driver needs no hardware.
func TestBuildSource_Fake(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Source.Driver = "fake"

	src, err := buildSource(cfg)
	if err != nil {
		t.Fatalf("buildSource() error: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*source.FakeReader); !ok {
		t.Errorf("buildSource() = %T, want *source.FakeReader", src)
	}
}

// TestBuildTuning verifies the config-to-conditioning conversion.
func TestBuildTuning(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Controller.ButtonDebounceMs = 7
	cfg.Controller.JoystickRearmMs = 90
	cfg.Pots[2].Alpha = 128
	cfg.Pots[2].RateLimitMs = 25

	tuning := buildTuning(cfg)

	if tuning.ButtonDebounce != 7 {
		t.Errorf("ButtonDebounce = %d, want 7", tuning.ButtonDebounce)
	}
	if tuning.JoystickRearm != 90 {
		t.Errorf("JoystickRearm = %d, want 90", tuning.JoystickRearm)
	}
	if tuning.Pots[2].Alpha != 128 {
		t.Errorf("Pots[2].Alpha = %d, want 128", tuning.Pots[2].Alpha)
	}
	if tuning.Pots[2].RateLimit != 25 {
		t.Errorf("Pots[2].RateLimit = %d, want 25", tuning.Pots[2].RateLimit)
	}
}

// TestBuildMap verifies the config-to-mapper conversion.
func TestBuildMap(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MIDI.Channel = 3
	cfg.MIDI.ButtonNotes[0] = 48
	cfg.Pots[1].CC = 74

	m := buildMap(cfg)

	if m.Channel != 3 {
		t.Errorf("Channel = %d, want 3", m.Channel)
	}
	if m.Velocity != cfg.MIDI.Velocity {
		t.Errorf("Velocity = %d, want %d", m.Velocity, cfg.MIDI.Velocity)
	}
	if m.ButtonNotes[0] != 48 {
		t.Errorf("ButtonNotes[0] = %d, want 48", m.ButtonNotes[0])
	}
	if m.PotCCs[1] != 74 {
		t.Errorf("PotCCs[1] = %d, want 74", m.PotCCs[1])
	}
}

// TestHealthCheck_AllDisabled verifies nil clients pass the check.
func TestHealthCheck_AllDisabled(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil); err != nil {
		t.Errorf("healthCheck(nil, nil) = %v, want nil", err)
	}
}

// defaultTestConfig loads a validated default configuration by writing
// an empty YAML file and letting Load fill in every default.
func defaultTestConfig() *config.Config {
	tmp, err := os.CreateTemp("", "melodeck-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	cfg, err := config.Load(tmp.Name())
	if err != nil {
		panic(err)
	}
	return cfg
}
