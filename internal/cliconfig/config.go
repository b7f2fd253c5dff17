package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDevice is the serial device used when none is configured.
const DefaultDevice = "/dev/ttyUSB0"

// Baud-rate defaults per profile. The chainload bootloader runs its UART
// fast; the legacy one-shot bootloader sticks to 115200.
const (
	DefaultBaud        = 921600
	DefaultOneShotBaud = 115200
)

// Config holds CLI configuration for chainboot.
type Config struct {
	Device string
	Baud   int

	SymbolPath string

	ChunkSize int
	OneShot   bool

	Monitor     bool
	Raw         bool
	PollTimeout time.Duration

	WaitDevice  bool
	ExitOnError bool

	SSHAddr    string
	SSHUser    string
	SSHCommand string

	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Device:      DefaultDevice,
		Baud:        0, // Derived from profile during Validate
		ChunkSize:   4096,
		Monitor:     true,
		PollTimeout: 100 * time.Millisecond,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Device == "" && c.SSHAddr == "" {
		return fmt.Errorf("device is required")
	}

	if c.Baud == 0 {
		if c.OneShot {
			c.Baud = DefaultOneShotBaud
		} else {
			c.Baud = DefaultBaud
		}
	}
	if c.Baud < 0 {
		return fmt.Errorf("baud must be positive")
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}

	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}

	if c.OneShot && c.SymbolPath != "" {
		return fmt.Errorf("the one-shot protocol has no symbol support")
	}

	if c.SSHAddr != "" && c.SSHCommand == "" {
		return fmt.Errorf("ssh-command is required with ssh")
	}

	return nil
}

// Logger returns a console zerolog logger honoring the verbose setting.
func Logger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
