package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Device      string `toml:"device"`
	Baud        int    `toml:"baud"`
	SymbolPath  string `toml:"symbol_path"`
	ChunkSize   int    `toml:"chunk_size"`
	OneShot     *bool  `toml:"oneshot"`
	Monitor     *bool  `toml:"monitor"`
	Raw         *bool  `toml:"raw"`
	PollTimeout string `toml:"poll_timeout"`
	WaitDevice  *bool  `toml:"wait_device"`
	ExitOnError *bool  `toml:"exit_on_error"`
	SSHAddr     string `toml:"ssh_addr"`
	SSHUser     string `toml:"ssh_user"`
	SSHCommand  string `toml:"ssh_command"`
	Verbose     *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.chainboot/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".chainboot", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", fc.Device, &cfg.Device)
	s.setString("symbols", fc.SymbolPath, &cfg.SymbolPath)
	s.setString("ssh", fc.SSHAddr, &cfg.SSHAddr)
	s.setString("ssh-user", fc.SSHUser, &cfg.SSHUser)
	s.setString("ssh-command", fc.SSHCommand, &cfg.SSHCommand)

	s.setInt("baud", fc.Baud, &cfg.Baud)
	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)

	if err := s.setDuration("poll-timeout", fc.PollTimeout, &cfg.PollTimeout); err != nil {
		return err
	}

	s.setBool("oneshot", fc.OneShot, &cfg.OneShot)
	s.setBool("monitor", fc.Monitor, &cfg.Monitor)
	s.setBool("raw", fc.Raw, &cfg.Raw)
	s.setBool("wait-device", fc.WaitDevice, &cfg.WaitDevice)
	s.setBool("exit-on-error", fc.ExitOnError, &cfg.ExitOnError)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
