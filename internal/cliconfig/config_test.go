package cliconfig

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDerivesBaud(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Baud != DefaultBaud {
		t.Fatalf("chainload baud = %d, want %d", cfg.Baud, DefaultBaud)
	}

	cfg = DefaultConfig()
	cfg.OneShot = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("one-shot config invalid: %v", err)
	}
	if cfg.Baud != DefaultOneShotBaud {
		t.Fatalf("one-shot baud = %d, want %d", cfg.Baud, DefaultOneShotBaud)
	}

	// Explicit baud survives validation.
	cfg = DefaultConfig()
	cfg.Baud = 115200
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Baud != 115200 {
		t.Fatalf("explicit baud overwritten to %d", cfg.Baud)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no device", func(c *Config) { c.Device = "" }, "device is required"},
		{"negative baud", func(c *Config) { c.Baud = -1 }, "baud"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk size"},
		{"zero poll timeout", func(c *Config) { c.PollTimeout = 0 }, "poll timeout"},
		{"oneshot with symbols", func(c *Config) { c.OneShot = true; c.SymbolPath = "kernel.dbg" }, "symbol"},
		{"ssh without command", func(c *Config) { c.SSHAddr = "host:22" }, "ssh-command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSSHWithoutSerialDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = ""
	cfg.SSHAddr = "host:22"
	cfg.SSHCommand = "picocom -q /dev/ttyUSB0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ssh-only config invalid: %v", err)
	}
}

func TestConfigSetterRespectsChangedFlags(t *testing.T) {
	s := newConfigSetter(map[string]bool{"device": true})

	dst := "/dev/ttyUSB0"
	s.setString("device", "/dev/ttyACM0", &dst)
	if dst != "/dev/ttyUSB0" {
		t.Fatal("setter overwrote an explicitly set flag")
	}

	s.setString("ssh-user", "root", &dst)
	if dst != "root" {
		t.Fatal("setter skipped an unchanged flag")
	}
}

func TestConfigSetterParsing(t *testing.T) {
	s := newConfigSetter(nil)

	var d time.Duration
	if err := s.setDuration("poll-timeout", "250ms", &d); err != nil {
		t.Fatal(err)
	}
	if d != 250*time.Millisecond {
		t.Fatalf("duration = %v", d)
	}
	if err := s.setDuration("poll-timeout", "bogus", &d); err == nil {
		t.Fatal("expected parse error")
	}

	var n int
	if err := s.setIntFromString("baud", "115200", &n); err != nil {
		t.Fatal(err)
	}
	if n != 115200 {
		t.Fatalf("int = %d", n)
	}
	if err := s.setIntFromString("baud", "fast", &n); err == nil {
		t.Fatal("expected parse error")
	}
	if err := s.setIntFromString("baud", "-5", &n); err != nil || n != 115200 {
		t.Fatalf("non-positive value must be ignored, got n=%d err=%v", n, err)
	}

	var b bool
	s.setBoolFromString("verbose", "1", &b)
	if !b {
		t.Fatal("expected \"1\" to parse as true")
	}
	s.setBoolFromString("verbose", "no", &b)
	if b {
		t.Fatal("expected \"no\" to parse as false")
	}
}
