package chainboot

import (
	"context"
	"io"
	"os"
	"time"
)

// Config holds session configuration.
type Config struct {
	// Profile selects the wire variant.
	Profile Profile

	// ChunkSize is the transfer chunk size. Both sides must agree on it
	// out of band.
	ChunkSize int

	// Monitor keeps the session attached after a successful transfer,
	// relaying device output and answering symbol lookups. Ignored by
	// the one-shot profile, which has nothing to monitor against.
	Monitor bool

	// LineBuffered makes the monitor hold partial lines across reads and
	// forward whole lines only. Required for symbol lookups; turn it off
	// to relay raw bytes as they arrive.
	LineBuffered bool

	// PollTimeout is the monitor read timeout. It keeps the host
	// responsive to cancellation and has no protocol meaning.
	PollTimeout time.Duration

	// ExitOnError stops the run loop on a recoverable session error
	// instead of resuming the wait for the next ready signal.
	ExitOnError bool

	// ProgressInterval throttles OnProgress callbacks.
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Profile:          ProfileChainload,
		ChunkSize:        DefaultChunkSize,
		Monitor:          true,
		LineBuffered:     true,
		PollTimeout:      DefaultPollTimeout,
		ExitOnError:      false,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Session drives the bootstrap protocol over a transport: wait for the
// device's ready signal, push the image, then optionally stay attached as
// a monitor. The transport and the symbol table are owned by the session
// while it runs; everything is sequential, so no locking is involved.
type Session struct {
	transport Transport
	config    *Config
	callbacks *Callbacks
	resolver  SymbolResolver
	out       io.Writer
	logger    Logger
	ctx       context.Context
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session configuration.
func WithConfig(config *Config) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithCallbacks sets the session callbacks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(s *Session) {
		s.callbacks = mergeCallbacks(callbacks)
	}
}

// WithContext sets the session context.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}

// WithLogger sets a logger for protocol debugging.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithResolver sets the symbol resolver used to answer monitor lookups.
// Without one, every lookup is answered "unknown".
func WithResolver(resolver SymbolResolver) Option {
	return func(s *Session) {
		s.resolver = resolver
	}
}

// WithOutput sets the writer that receives forwarded device log output.
// Defaults to standard output.
func WithOutput(out io.Writer) Option {
	return func(s *Session) {
		s.out = out
	}
}

// NewSession creates a new bootstrap session over the given transport.
func NewSession(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		config:    DefaultConfig(),
		callbacks: defaultCallbacks(),
		out:       os.Stdout,
		logger:    NoopLogger{},
		ctx:       context.Background(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.config.ChunkSize <= 0 {
		s.config.ChunkSize = DefaultChunkSize
	}

	return s
}

// Run executes the session against the given image. For the chainload
// profile this is the program's steady state: it waits for a ready signal,
// pushes the image, and on session-level failures goes back to waiting for
// the next device boot cycle. It returns when the transfer succeeds (and
// the monitor, if enabled, is interrupted), when the transport fails, when
// the context is cancelled, or - with ExitOnError - on the first session
// error.
//
// The one-shot profile performs a single wait-send cycle and returns.
func (s *Session) Run(ctx context.Context, image []byte) error {
	if ctx == nil {
		ctx = s.ctx
	}

	for {
		err := s.cycle(ctx, image)
		switch {
		case err == nil:
			return nil
		case recoverable(err) && !s.config.ExitOnError && s.config.Profile == ProfileChainload:
			s.callbacks.OnError(err, true)
			continue
		default:
			s.callbacks.OnError(err, false)
			return err
		}
	}
}

// Transfer performs a single wait-send cycle without entering the monitor
// and without the outer retry loop.
func (s *Session) Transfer(ctx context.Context, image []byte) error {
	if ctx == nil {
		ctx = s.ctx
	}
	return s.transfer(newProtocolIO(ctx, s.transport), image)
}

// cycle is one handshake-to-completion round, plus the monitor when the
// transfer succeeds and monitoring is enabled.
func (s *Session) cycle(ctx context.Context, image []byte) error {
	pio := newProtocolIO(ctx, s.transport)

	if err := s.transfer(pio, image); err != nil {
		return err
	}

	if s.config.Profile != ProfileChainload || !s.config.Monitor {
		return nil
	}

	s.callbacks.OnMonitorStart()
	s.logger.Info("entering monitor")
	m := &monitor{
		io:           pio,
		resolver:     s.resolver,
		out:          s.out,
		lineBuffered: s.config.LineBuffered,
		pollTimeout:  s.config.PollTimeout,
		logger:       s.logger,
	}
	return m.run()
}

func (s *Session) transfer(pio *protocolIO, image []byte) error {
	// Handshake and echo reads block with no timeout: the protocol has
	// no way to signal device unresponsiveness other than silence.
	if err := pio.setReadTimeout(0); err != nil {
		return err
	}

	s.logger.Info("waiting for ready signal...")
	if err := awaitReady(pio, s.config.Profile); err != nil {
		return err
	}
	s.callbacks.OnReady()
	s.callbacks.OnTransferStart(int64(len(image)))

	snd := &sender{
		io:        pio,
		profile:   s.config.Profile,
		chunkSize: s.config.ChunkSize,
		callbacks: s.callbacks,
		logger:    s.logger,
		progress:  NewProgressTracker(s.callbacks.OnProgress, s.config.ProgressInterval),
	}
	start := time.Now()
	if err := snd.send(image); err != nil {
		return err
	}
	s.callbacks.OnTransferComplete(int64(len(image)), time.Since(start))
	return nil
}
