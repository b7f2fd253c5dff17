package chainboot

import (
	"bytes"
	"io"
	"time"
)

// mockDevice simulates the device side of the link for testing. Reads
// consume a scripted sequence of bursts, one burst per Read call; writes
// and flushes are recorded for assertions.
type mockDevice struct {
	bursts [][]byte
	cur    []byte

	written   bytes.Buffer
	writeHook func([]byte)

	flushes  int
	timeouts []time.Duration
}

func newMockDevice(bursts ...[]byte) *mockDevice {
	return &mockDevice{bursts: bursts}
}

// script concatenates device responses into a single burst.
func script(parts ...[]byte) []byte {
	var b bytes.Buffer
	for _, p := range parts {
		b.Write(p)
	}
	return b.Bytes()
}

func (m *mockDevice) Read(p []byte) (int, error) {
	if len(m.cur) == 0 {
		if len(m.bursts) == 0 {
			return 0, io.EOF
		}
		m.cur = m.bursts[0]
		m.bursts = m.bursts[1:]
	}
	n := copy(p, m.cur)
	m.cur = m.cur[n:]
	return n, nil
}

func (m *mockDevice) Write(p []byte) (int, error) {
	if m.writeHook != nil {
		m.writeHook(p)
	}
	return m.written.Write(p)
}

func (m *mockDevice) Flush() error {
	m.flushes++
	return nil
}

func (m *mockDevice) SetReadTimeout(d time.Duration) error {
	m.timeouts = append(m.timeouts, d)
	return nil
}

// unread reports how many scripted device bytes were never consumed.
func (m *mockDevice) unread() int {
	n := len(m.cur)
	for _, b := range m.bursts {
		n += len(b)
	}
	return n
}
