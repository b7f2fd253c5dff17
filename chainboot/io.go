package chainboot

import (
	"context"
	"io"
	"time"
)

// Transport is a duplex byte stream with timeout-aware reads, the
// collaborator the protocol runs over. Implementations are provided for
// serial ports (package serialport) and SSH relays (NewSSHTransport);
// anything else that satisfies the contract works too.
//
// Read semantics: with a timeout of zero or below, Read blocks until at
// least one byte is available. With a positive timeout, Read returns
// (0, nil) when the timeout expires with no data — that is "no data yet",
// not an error.
type Transport interface {
	io.Reader
	io.Writer

	// Flush blocks until all written bytes have been handed to the
	// device (e.g. drained out of the serial output buffer).
	Flush() error

	// SetReadTimeout changes the read timeout for subsequent reads.
	SetReadTimeout(d time.Duration) error
}

// protocolIO wraps a Transport with the exact-read primitives the protocol
// needs. Reads check the context between transport calls so a cancelled
// session stops at the next suspension point.
type protocolIO struct {
	t   Transport
	ctx context.Context
}

func newProtocolIO(ctx context.Context, t Transport) *protocolIO {
	if ctx == nil {
		ctx = context.Background()
	}
	return &protocolIO{t: t, ctx: ctx}
}

// readByte reads a single byte, blocking until one arrives.
func (p *protocolIO) readByte() (byte, error) {
	var buf [1]byte
	if err := p.readFull(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readFull reads exactly len(buf) bytes. Empty reads (timeout expiries on
// transports that have one configured) are retried, so callers get either
// a full buffer or an error.
func (p *protocolIO) readFull(buf []byte) error {
	total := 0
	for total < len(buf) {
		select {
		case <-p.ctx.Done():
			return NewError(ErrCancelled, p.ctx.Err().Error())
		default:
		}

		n, err := p.t.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF && total == len(buf) {
				return nil
			}
			return wrapIO(err, "read")
		}
	}
	return nil
}

// readBurst reads whatever is available, up to len(buf) bytes. A return of
// (0, nil) means the read timeout expired with no data.
func (p *protocolIO) readBurst(buf []byte) (int, error) {
	select {
	case <-p.ctx.Done():
		return 0, NewError(ErrCancelled, p.ctx.Err().Error())
	default:
	}

	n, err := p.t.Read(buf)
	if err != nil && err != io.EOF {
		return n, wrapIO(err, "read")
	}
	if err == io.EOF && n == 0 {
		return 0, wrapIO(io.ErrUnexpectedEOF, "transport closed")
	}
	return n, nil
}

// write writes the whole buffer.
func (p *protocolIO) write(buf []byte) error {
	if _, err := p.t.Write(buf); err != nil {
		return wrapIO(err, "write")
	}
	return nil
}

// flush drains the transport's output buffer.
func (p *protocolIO) flush() error {
	if err := p.t.Flush(); err != nil {
		return wrapIO(err, "flush")
	}
	return nil
}

// setReadTimeout reconfigures the transport read timeout. d <= 0 means
// block forever.
func (p *protocolIO) setReadTimeout(d time.Duration) error {
	if err := p.t.SetReadTimeout(d); err != nil {
		return wrapIO(err, "set read timeout")
	}
	return nil
}
