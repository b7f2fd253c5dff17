package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("CHAINBOOT_DEVICE", "/dev/ttyACM0")
	t.Setenv("CHAINBOOT_BAUD", "115200")
	t.Setenv("CHAINBOOT_POLL_TIMEOUT", "50ms")
	t.Setenv("CHAINBOOT_MONITOR", "false")
	t.Setenv("CHAINBOOT_VERBOSE", "1")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatal(err)
	}

	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != 115200 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PollTimeout != 50*time.Millisecond {
		t.Fatalf("poll timeout = %v", cfg.PollTimeout)
	}
	if cfg.Monitor || !cfg.Verbose {
		t.Fatalf("bool envs not applied: monitor=%v verbose=%v", cfg.Monitor, cfg.Verbose)
	}
}

func TestApplyEnvConfigRespectsFlags(t *testing.T) {
	t.Setenv("CHAINBOOT_DEVICE", "/dev/ttyACM0")

	cfg := DefaultConfig()
	changed := map[string]bool{"device": true}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatal(err)
	}
	if cfg.Device != DefaultDevice {
		t.Fatal("environment overrode a command-line flag")
	}
}

func TestApplyEnvConfigBadValue(t *testing.T) {
	t.Setenv("CHAINBOOT_BAUD", "fast")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err == nil {
		t.Fatal("expected parse error for CHAINBOOT_BAUD")
	}
}
