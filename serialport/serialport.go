// Package serialport opens and configures the physical serial device and
// adapts it to the chainboot Transport contract.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the baud rate the chainload bootloader runs its UART at.
const DefaultBaud = 921600

// Port wraps a serial device as a chainboot.Transport.
type Port struct {
	port serial.Port
	name string
}

// Open opens the serial device at the given baud rate with blocking reads
// (no read timeout).
func Open(device string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure %s: %w", device, err)
	}
	return &Port{port: port, name: device}, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.name
}

func (p *Port) Read(buf []byte) (int, error) {
	return p.port.Read(buf)
}

func (p *Port) Write(buf []byte) (int, error) {
	return p.port.Write(buf)
}

// Flush blocks until the output buffer has been drained to the device.
func (p *Port) Flush() error {
	return p.port.Drain()
}

// SetReadTimeout changes the read timeout. d <= 0 means block forever;
// with a positive timeout an expired read returns (0, nil).
func (p *Port) SetReadTimeout(d time.Duration) error {
	if d <= 0 {
		return p.port.SetReadTimeout(serial.NoTimeout)
	}
	return p.port.SetReadTimeout(d)
}

// Close closes the device.
func (p *Port) Close() error {
	return p.port.Close()
}

// List returns the serial ports present on the system.
func List() ([]string, error) {
	return serial.GetPortsList()
}
