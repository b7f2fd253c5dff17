package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CHAINBOOT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", os.Getenv("CHAINBOOT_DEVICE"), &cfg.Device)
	s.setString("symbols", os.Getenv("CHAINBOOT_SYMBOL_PATH"), &cfg.SymbolPath)
	s.setString("ssh", os.Getenv("CHAINBOOT_SSH_ADDR"), &cfg.SSHAddr)
	s.setString("ssh-user", os.Getenv("CHAINBOOT_SSH_USER"), &cfg.SSHUser)
	s.setString("ssh-command", os.Getenv("CHAINBOOT_SSH_COMMAND"), &cfg.SSHCommand)

	if err := s.setIntFromString("baud", os.Getenv("CHAINBOOT_BAUD"), &cfg.Baud); err != nil {
		return err
	}
	if err := s.setIntFromString("chunk-size", os.Getenv("CHAINBOOT_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}

	if err := s.setDuration("poll-timeout", os.Getenv("CHAINBOOT_POLL_TIMEOUT"), &cfg.PollTimeout); err != nil {
		return err
	}

	s.setBoolFromString("oneshot", os.Getenv("CHAINBOOT_ONESHOT"), &cfg.OneShot)
	s.setBoolFromString("monitor", os.Getenv("CHAINBOOT_MONITOR"), &cfg.Monitor)
	s.setBoolFromString("raw", os.Getenv("CHAINBOOT_RAW"), &cfg.Raw)
	s.setBoolFromString("wait-device", os.Getenv("CHAINBOOT_WAIT_DEVICE"), &cfg.WaitDevice)
	s.setBoolFromString("exit-on-error", os.Getenv("CHAINBOOT_EXIT_ON_ERROR"), &cfg.ExitOnError)
	s.setBoolFromString("verbose", os.Getenv("CHAINBOOT_VERBOSE"), &cfg.Verbose)

	return nil
}
