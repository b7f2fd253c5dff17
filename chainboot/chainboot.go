// Package chainboot implements a point-to-point bootstrap protocol for
// pushing an executable image over a serial link to a device that is
// waiting to receive one, followed by an interactive monitor session.
//
// A device that wants an image repeatedly emits a break byte (0x03) on its
// serial console. Once the host sees three of them in a row it sends the
// image length, streams the image in fixed-size chunks that the device
// echoes back for integrity verification, and waits for a completion tag.
// After a successful push the host can stay attached as a monitor, relaying
// device log output and answering symbol-lookup requests embedded in the
// log stream against a host-side debug-symbol table.
//
// The package is designed as a library that works over any duplex byte
// stream (serial port, SSH relay, in-memory pipe) and provides callback
// hooks for progress tracking and session events.
package chainboot

import "time"

// Protocol constants for the chainload (handshake) profile.
// Both sides compile these in; nothing is negotiated on the wire.
const (
	// BreakByte is the control byte the device repeats to signal that it
	// is ready to receive an image.
	BreakByte = 0x03

	// BreakCount is the number of consecutive break bytes that make up a
	// ready signal. Any other byte resets the count.
	BreakCount = 3

	// DefaultChunkSize is the transfer chunk size. Every full-size chunk
	// is echoed back by the device and verified byte-for-byte.
	DefaultChunkSize = 4096
)

// Wire tags exchanged during a chainload transfer.
var (
	// sizeAck is sent by the device after the length header if it accepts
	// the announced image size.
	sizeAck = []byte("OK")

	// completionTag is sent by the device once it has received and staged
	// the whole image.
	completionTag = []byte("TY:)")
)

// symMarker prefixes a monitor line that asks the host to resolve a code
// address to a symbol name. The remainder of the line is a decimal address.
var symMarker = []byte("[sym]")

// symUnknown is the reply for a lookup that cannot be answered: no symbol
// table loaded, unparsable address, or no containing symbol.
const symUnknown = "unknown"

// Timeouts and sizes that are host-side policy rather than wire format.
const (
	// DefaultPollTimeout is the monitor read timeout. It exists only so
	// the host stays responsive to cancellation; the protocol itself
	// never times out.
	DefaultPollTimeout = 100 * time.Millisecond

	// monitorBufSize is the monitor read burst size.
	monitorBufSize = 1024

	// oneShotPreambleLen is how many bytes the one-shot profile consumes
	// before sending, standing in for a real handshake.
	oneShotPreambleLen = 3
)
