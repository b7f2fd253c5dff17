package symtab

import (
	"os"
	"path/filepath"
	"testing"
)

func testTable() *Table {
	return New([]Symbol{
		{Start: 0x2000, Size: 0x10, Name: "bar"},
		{Start: 0x1000, Size: 0x20, Name: "foo"},
		{Start: 0x3000, Size: 0, Name: "marker"},
	})
}

func TestLookup(t *testing.T) {
	tbl := testTable()

	tests := []struct {
		name string
		addr uint64
		want string
		ok   bool
	}{
		{"inside first", 0x1010, "foo", true},
		{"at start", 0x2000, "bar", true},
		{"last byte", 0x100F + 0x10, "foo", true},
		{"at end is outside", 0x1020, "", false},
		{"below first", 0xFFF, "", false},
		{"between symbols", 0x1FFF, "", false},
		{"past last", 0x2010, "", false},
		{"zero-size symbol start", 0x3000, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.Lookup(tt.addr)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Lookup(%#x) = (%q, %v), want (%q, %v)", tt.addr, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNewDropsZeroSizedSymbols(t *testing.T) {
	if got := testTable().Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestLookupEmptyTable(t *testing.T) {
	if _, ok := New(nil).Lookup(0x1000); ok {
		t.Fatal("empty table resolved an address")
	}
}

func TestLoadRejectsNonELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.dbg")
	if err := os.WriteFile(path, []byte("not an elf file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-ELF input")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.dbg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
