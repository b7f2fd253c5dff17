package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"os/user"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/drunlade/go-chainboot/chainboot"
	"github.com/drunlade/go-chainboot/internal/cliconfig"
	"github.com/drunlade/go-chainboot/internal/logging"
	"github.com/drunlade/go-chainboot/serialport"
	"github.com/drunlade/go-chainboot/symtab"
)

const helpDescription = `
Push a kernel image to a device waiting on its serial bootloader, then stay
attached as a log monitor.

The device signals readiness with repeated break bytes; chainboot sends the
image size, streams the image in echo-verified chunks and waits for the
device's completion tag. In monitor mode, log lines are relayed to stdout
and on-device symbol-lookup requests are answered from an ELF debug-symbol
file (--symbols).

The device can also hang off another machine: --ssh runs a relay command
there (for example "socat - /dev/ttyUSB0,b921600,raw") and speaks the
protocol through it.
`

var exampleUsage = strings.TrimSpace(`
  chainboot kernel.bin
  chainboot kernel.bin --symbols kernel.sym
  chainboot kernel.bin --device /dev/ttyACM0 --baud 115200 --no-monitor
  chainboot kernel.bin --oneshot
  chainboot kernel.bin --ssh buildbox:22 --ssh-command 'socat - /dev/ttyUSB0,b921600,raw'
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var noMonitor bool

	root := &cobra.Command{
		Use:     "chainboot <image>",
		Short:   "Push a kernel image over a serial bootstrap link and monitor the device",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Args:    cobra.ExactArgs(1),
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides file config but is overridden by flags
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if changed["no-monitor"] {
				cfg.Monitor = !noMonitor
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), &cfg, args[0])
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.chainboot/config.toml)")
	root.Flags().StringVarP(&cfg.Device, "device", "d", cfg.Device, "serial device")
	root.Flags().IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "baud rate (default: 921600, one-shot: 115200)")
	root.Flags().StringVarP(&cfg.SymbolPath, "symbols", "s", cfg.SymbolPath, "ELF debug-symbol file for monitor lookups")
	root.Flags().IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "transfer chunk size in bytes")
	root.Flags().BoolVar(&cfg.OneShot, "oneshot", cfg.OneShot, "use the legacy one-shot protocol (length + image + CRC-32, no handshake)")
	root.Flags().BoolVar(&noMonitor, "no-monitor", false, "exit after a successful transfer instead of monitoring")
	root.Flags().BoolVar(&cfg.Raw, "raw", cfg.Raw, "relay monitor output byte-wise instead of line-buffered")
	root.Flags().BoolVar(&cfg.WaitDevice, "wait-device", cfg.WaitDevice, "wait for the serial device node to appear before opening it")
	root.Flags().BoolVar(&cfg.ExitOnError, "exit-on-error", cfg.ExitOnError, "exit on a failed transfer instead of waiting for the next ready signal")
	root.Flags().StringVar(&cfg.SSHAddr, "ssh", cfg.SSHAddr, "host[:port] of an SSH relay that bridges the serial device")
	root.Flags().StringVar(&cfg.SSHUser, "ssh-user", cfg.SSHUser, "SSH relay user (default: current user)")
	root.Flags().StringVar(&cfg.SSHCommand, "ssh-command", cfg.SSHCommand, "command run on the SSH relay to bridge the device")
	root.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *cliconfig.Config, imagePath string) error {
	log := cliconfig.Logger(cfg.Verbose)

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	log.Info().Str("path", imagePath).Int("size", len(image)).Msg("image loaded")

	var resolver chainboot.SymbolResolver
	if cfg.SymbolPath != "" {
		table, err := symtab.Load(cfg.SymbolPath)
		if err != nil {
			return fmt.Errorf("load symbols: %w", err)
		}
		log.Info().Str("path", cfg.SymbolPath).Int("symbols", table.Len()).Msg("symbol table loaded")
		resolver = table
	}

	transport, closeTransport, err := openTransport(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTransport()

	profile := chainboot.ProfileChainload
	if cfg.OneShot {
		profile = chainboot.ProfileOneShot
	}

	session := chainboot.NewSession(transport,
		chainboot.WithConfig(&chainboot.Config{
			Profile:      profile,
			ChunkSize:    cfg.ChunkSize,
			Monitor:      cfg.Monitor,
			LineBuffered: !cfg.Raw,
			PollTimeout:  cfg.PollTimeout,
			ExitOnError:  cfg.ExitOnError,
		}),
		chainboot.WithResolver(resolver),
		chainboot.WithLogger(logging.NewZerologAdapter(log)),
		chainboot.WithCallbacks(makeCallbacks(log)),
	)

	err = session.Run(ctx, image)
	if err == nil || chainboot.IsCancelled(err) || ctx.Err() != nil {
		log.Info().Msg("done")
		return nil
	}
	return err
}

// openTransport opens the local serial device, or dials the SSH relay when
// one is configured.
func openTransport(ctx context.Context, cfg *cliconfig.Config, log zerolog.Logger) (chainboot.Transport, func(), error) {
	if cfg.SSHAddr != "" {
		client, err := dialSSH(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("dial ssh relay: %w", err)
		}
		t, err := chainboot.NewSSHTransport(client, cfg.SSHCommand)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("start ssh relay command: %w", err)
		}
		log.Info().Str("addr", cfg.SSHAddr).Str("command", cfg.SSHCommand).Msg("relay connected")
		return t, func() { t.Close(); client.Close() }, nil
	}

	if cfg.WaitDevice {
		log.Info().Str("device", cfg.Device).Msg("waiting for device node...")
		if err := serialport.WaitForDevice(ctx, cfg.Device); err != nil {
			return nil, nil, fmt.Errorf("wait for device: %w", err)
		}
	}

	port, err := serialport.Open(cfg.Device, cfg.Baud)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("serial port open")
	return port, func() { port.Close() }, nil
}

// dialSSH establishes the SSH connection to the relay host, prompting for
// a password when stdin is a terminal.
func dialSSH(cfg *cliconfig.Config) (*ssh.Client, error) {
	addr := cfg.SSHAddr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	username := cfg.SSHUser
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}

	var auth []ssh.AuthMethod
	if term.IsTerminal(int(os.Stdin.Fd())) {
		auth = append(auth, ssh.PasswordCallback(func() (string, error) {
			fmt.Fprintf(os.Stderr, "%s@%s password: ", username, addr)
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			return string(pw), err
		}))
	}

	return ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	})
}

// makeCallbacks wires session events to the console. Chunk progress is
// drawn as an in-place line only when stderr is a terminal.
func makeCallbacks(log zerolog.Logger) *chainboot.Callbacks {
	interactive := term.IsTerminal(int(os.Stderr.Fd()))

	return &chainboot.Callbacks{
		OnReady: func() {
			log.Info().Msg("ready signal received")
		},
		OnTransferStart: func(size int64) {
			log.Info().Int64("bytes", size).Msg("transfer starting")
		},
		OnProgress: func(transferred, total int64, rate float64) {
			if !interactive {
				return
			}
			percent := float64(0)
			if total > 0 {
				percent = float64(transferred) / float64(total) * 100
			}
			fmt.Fprintf(os.Stderr, "\r%6.1f%%  %d/%d bytes  (%.0f B/s)", percent, transferred, total, rate)
		},
		OnTransferComplete: func(size int64, duration time.Duration) {
			if interactive {
				fmt.Fprintln(os.Stderr)
			}
			log.Info().Int64("bytes", size).Dur("elapsed", duration).Msg("transfer complete")
		},
		OnError: func(err error, recoverable bool) {
			if recoverable {
				log.Warn().Err(err).Msg("transfer failed, waiting for next ready signal")
			} else {
				log.Error().Err(err).Msg("session failed")
			}
		},
		OnMonitorStart: func() {
			log.Info().Msg("monitoring device output (Ctrl-C to exit)")
		},
	}
}
