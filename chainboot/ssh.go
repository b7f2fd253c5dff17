package chainboot

import (
	"io"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHTransport runs the bootstrap protocol through an SSH session whose
// remote command bridges the serial device on its standard streams (for
// example `socat - /dev/ttyUSB0,b921600,raw`). This replaces a local
// serial port when the device hangs off another machine.
type SSHTransport struct {
	sshSession *ssh.Session
	stdin      io.WriteCloser

	// The pump goroutine turns the deadline-less SSH stdout pipe into
	// timeout-aware reads: it forwards bursts over a channel the Read
	// side can select on together with a timer.
	data     chan []byte
	pumpErr  chan error
	leftover []byte
	timeout  time.Duration

	done chan error
}

// NewSSHTransport starts command on an established SSH client connection
// and returns a Transport speaking to its stdio.
func NewSSHTransport(client *ssh.Client, command string) (*SSHTransport, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		stdin.Close()
		session.Close()
		return nil, err
	}

	if err := session.Start(command); err != nil {
		stdin.Close()
		session.Close()
		return nil, err
	}

	t := &SSHTransport{
		sshSession: session,
		stdin:      stdin,
		data:       make(chan []byte),
		pumpErr:    make(chan error, 1),
		done:       make(chan error, 1),
	}

	go t.pump(stdout)
	go func() {
		t.done <- session.Wait()
	}()

	return t, nil
}

func (t *SSHTransport) pump(stdout io.Reader) {
	for {
		buf := make([]byte, monitorBufSize)
		n, err := stdout.Read(buf)
		if n > 0 {
			t.data <- buf[:n]
		}
		if err != nil {
			t.pumpErr <- err
			return
		}
	}
}

// Read returns buffered or freshly pumped bytes. With a timeout
// configured it returns (0, nil) when the timeout expires with no data.
func (t *SSHTransport) Read(p []byte) (int, error) {
	if len(t.leftover) > 0 {
		n := copy(p, t.leftover)
		t.leftover = t.leftover[n:]
		return n, nil
	}

	if t.timeout > 0 {
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()
		select {
		case burst := <-t.data:
			n := copy(p, burst)
			t.leftover = burst[n:]
			return n, nil
		case err := <-t.pumpErr:
			return 0, err
		case <-timer.C:
			return 0, nil
		}
	}

	select {
	case burst := <-t.data:
		n := copy(p, burst)
		t.leftover = burst[n:]
		return n, nil
	case err := <-t.pumpErr:
		return 0, err
	}
}

func (t *SSHTransport) Write(p []byte) (int, error) {
	return t.stdin.Write(p)
}

// Flush is a no-op: SSH channel writes are not buffered on our side.
func (t *SSHTransport) Flush() error {
	return nil
}

// SetReadTimeout changes the read timeout. d <= 0 blocks forever.
func (t *SSHTransport) SetReadTimeout(d time.Duration) error {
	t.timeout = d
	return nil
}

// Close shuts down the remote bridge command and the SSH session.
func (t *SSHTransport) Close() error {
	t.stdin.Close()
	err := t.sshSession.Close()

	select {
	case <-t.done:
	case <-time.After(2 * time.Second):
	}

	if err != nil && err != io.EOF {
		return err
	}
	return nil
}
