package chainboot

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"
)

type staticResolver map[uint64]string

func (r staticResolver) Lookup(addr uint64) (string, bool) {
	for start, name := range r {
		// Test tables are tiny; 0x20-byte symbols.
		if start <= addr && addr < start+0x20 {
			return name, true
		}
	}
	return "", false
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   lineKind
		addr   uint64
		addrOK bool
	}{
		{"plain", "hello world", linePlain, 0, false},
		{"plain with brackets", "[info] booted", linePlain, 0, false},
		{"symbol request", "[sym]4096", lineSymbolRequest, 4096, true},
		{"symbol request padded", "[sym] 4096 ", lineSymbolRequest, 4096, true},
		{"symbol request bad address", "[sym]0x1000", lineSymbolRequest, 0, false},
		{"symbol request empty", "[sym]", lineSymbolRequest, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyLine([]byte(tt.line))
			if got.kind != tt.kind {
				t.Fatalf("kind = %v, want %v", got.kind, tt.kind)
			}
			if got.addr != tt.addr || got.addrOK != tt.addrOK {
				t.Fatalf("addr = (%d, %v), want (%d, %v)", got.addr, got.addrOK, tt.addr, tt.addrOK)
			}
			if tt.kind == linePlain && !bytes.Equal(got.text, []byte(tt.line)) {
				t.Fatalf("text = %q, want %q", got.text, tt.line)
			}
		})
	}
}

// orderedSink records writes from both directions so tests can assert
// reply/forward ordering.
type orderedSink struct {
	events []string
}

func (o *orderedSink) record(tag string, p []byte) {
	o.events = append(o.events, tag+string(p))
}

// recordingWriter tees forwarded output into an orderedSink.
type recordingWriter struct {
	buf  bytes.Buffer
	sink *orderedSink
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.sink.record("out<-", p)
	return w.buf.Write(p)
}

func newTestMonitor(dev *mockDevice, resolver SymbolResolver, lineBuffered bool, out io.Writer) *monitor {
	return &monitor{
		io:           newProtocolIO(context.Background(), dev),
		resolver:     resolver,
		out:          out,
		lineBuffered: lineBuffered,
		pollTimeout:  10 * time.Millisecond,
		logger:       NoopLogger{},
	}
}

func TestMonitorAnswersLookupThenForwards(t *testing.T) {
	dev := newMockDevice([]byte("[sym]4096\nhello\n"))
	sink := &orderedSink{}
	dev.writeHook = func(p []byte) { sink.record("dev<-", p) }

	out := &recordingWriter{sink: sink}
	resolver := staticResolver{0x1000: "foo"}
	m := newTestMonitor(dev, resolver, true, out)

	if err := m.run(); err == nil {
		t.Fatal("expected error when device stream ends")
	}

	if out.buf.String() != "hello\n" {
		t.Fatalf("forwarded output = %q, want %q", out.buf.String(), "hello\n")
	}
	want := []string{"dev<-foo\n", "out<-hello\n"}
	if len(sink.events) != 2 || sink.events[0] != want[0] || sink.events[1] != want[1] {
		t.Fatalf("event order = %v, want %v", sink.events, want)
	}
}

func TestMonitorUnknownReplies(t *testing.T) {
	tests := []struct {
		name     string
		resolver SymbolResolver
		line     string
	}{
		{"no table", nil, "[sym]4096\n"},
		{"miss", staticResolver{0x1000: "foo"}, "[sym]8272\n"},
		{"bad address", staticResolver{0x1000: "foo"}, "[sym]zzz\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice([]byte(tt.line))
			var out bytes.Buffer
			m := newTestMonitor(dev, tt.resolver, true, &out)

			m.run() // ends with the script
			if got := dev.written.String(); got != "unknown\n" {
				t.Fatalf("reply = %q, want %q", got, "unknown\n")
			}
			if out.Len() != 0 {
				t.Fatalf("unexpected forwarded output %q", out.String())
			}
		})
	}
}

func TestMonitorHoldsPartialLines(t *testing.T) {
	dev := newMockDevice([]byte("hel"), []byte("lo\nwor"), []byte("ld\n"))
	var out bytes.Buffer
	m := newTestMonitor(dev, nil, true, &out)

	m.run()
	if out.String() != "hello\nworld\n" {
		t.Fatalf("forwarded output = %q, want %q", out.String(), "hello\nworld\n")
	}
}

func TestMonitorSplitSymbolRequestAcrossBursts(t *testing.T) {
	dev := newMockDevice([]byte("[sym]40"), []byte("96\n"))
	var out bytes.Buffer
	m := newTestMonitor(dev, staticResolver{0x1000: "foo"}, true, &out)

	m.run()
	if got := dev.written.String(); got != "foo\n" {
		t.Fatalf("reply = %q, want %q", got, "foo\n")
	}
}

func TestMonitorSkipsEmptyLines(t *testing.T) {
	dev := newMockDevice([]byte("\n\na\n"))
	var out bytes.Buffer
	m := newTestMonitor(dev, nil, true, &out)

	m.run()
	if out.String() != "a\n" {
		t.Fatalf("forwarded output = %q, want %q", out.String(), "a\n")
	}
}

func TestMonitorRawForwardsImmediately(t *testing.T) {
	dev := newMockDevice([]byte("par"), []byte("tial [sym]4096\n"))
	var out bytes.Buffer
	m := newTestMonitor(dev, staticResolver{0x1000: "foo"}, false, &out)

	m.run()
	// Raw mode relays everything verbatim, including would-be requests.
	if out.String() != "partial [sym]4096\n" {
		t.Fatalf("forwarded output = %q, want %q", out.String(), "partial [sym]4096\n")
	}
	if dev.written.Len() != 0 {
		t.Fatalf("raw mode must not write replies, got %q", dev.written.String())
	}
}

func TestMonitorConfiguresPollTimeout(t *testing.T) {
	dev := newMockDevice()
	var out bytes.Buffer
	m := newTestMonitor(dev, nil, true, &out)

	m.run()
	if len(dev.timeouts) == 0 || dev.timeouts[0] != 10*time.Millisecond {
		t.Fatalf("expected poll timeout to be configured, got %v", dev.timeouts)
	}
}
