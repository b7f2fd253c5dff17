package chainboot

import (
	"bytes"
	"io"
	"strconv"
	"time"
)

// SymbolResolver answers symbol-lookup requests from the device. Lookup
// reports the name of the symbol containing addr, treating an address as
// contained when start <= addr < start+size.
type SymbolResolver interface {
	Lookup(addr uint64) (name string, ok bool)
}

// lineKind discriminates the two kinds of monitor line.
type lineKind int

const (
	linePlain lineKind = iota
	lineSymbolRequest
)

// monitorLine is a classified log line: either plain text to forward, or a
// symbol-lookup request to answer on the transport.
type monitorLine struct {
	kind lineKind
	text []byte // linePlain: the line without its trailing LF

	addr   uint64 // lineSymbolRequest: requested address
	addrOK bool   // lineSymbolRequest: address parsed successfully
}

// classifyLine classifies one LF-stripped log line.
func classifyLine(line []byte) monitorLine {
	if !bytes.HasPrefix(line, symMarker) {
		return monitorLine{kind: linePlain, text: line}
	}
	rest := string(bytes.TrimSpace(line[len(symMarker):]))
	addr, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return monitorLine{kind: lineSymbolRequest}
	}
	return monitorLine{kind: lineSymbolRequest, addr: addr, addrOK: true}
}

// monitor relays device output after a successful transfer. It has no
// natural termination: it runs until the context is cancelled or the
// transport fails.
type monitor struct {
	io           *protocolIO
	resolver     SymbolResolver
	out          io.Writer
	lineBuffered bool
	pollTimeout  time.Duration
	logger       Logger

	pending []byte // partial line held across read bursts
}

// run polls the transport with a short timeout so the session stays
// responsive to cancellation, and dispatches whatever arrives.
func (m *monitor) run() error {
	if m.pollTimeout <= 0 {
		m.pollTimeout = DefaultPollTimeout
	}
	if err := m.io.setReadTimeout(m.pollTimeout); err != nil {
		return err
	}

	buf := make([]byte, monitorBufSize)
	for {
		n, err := m.io.readBurst(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			// No data yet.
			continue
		}
		if err := m.consume(buf[:n]); err != nil {
			return err
		}
	}
}

// consume handles one read burst. In raw mode bytes are forwarded as they
// come. In line-buffered mode complete lines are dispatched in order and a
// trailing partial line is held back until terminated, so a symbol reply
// is never interleaved with a half-forwarded line.
func (m *monitor) consume(data []byte) error {
	if !m.lineBuffered {
		return m.forward(data)
	}

	m.pending = append(m.pending, data...)
	for {
		idx := bytes.IndexByte(m.pending, '\n')
		if idx < 0 {
			return nil
		}
		line := m.pending[:idx]
		if len(line) > 0 {
			if err := m.handleLine(line); err != nil {
				return err
			}
		}
		m.pending = m.pending[idx+1:]
	}
}

func (m *monitor) handleLine(line []byte) error {
	parsed := classifyLine(line)
	switch parsed.kind {
	case lineSymbolRequest:
		name := symUnknown
		if parsed.addrOK && m.resolver != nil {
			if n, ok := m.resolver.Lookup(parsed.addr); ok {
				name = n
			}
		}
		m.logger.Debug("symbol lookup %d -> %s", parsed.addr, name)
		return m.io.write(append([]byte(name), '\n'))
	default:
		return m.forward(append(parsed.text, '\n'))
	}
}

// forward writes device output to the local console, flushed immediately
// so log lines appear as they arrive.
func (m *monitor) forward(data []byte) error {
	if _, err := m.out.Write(data); err != nil {
		return wrapIO(err, "monitor output")
	}
	if f, ok := m.out.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return wrapIO(err, "monitor output flush")
		}
	}
	return nil
}
