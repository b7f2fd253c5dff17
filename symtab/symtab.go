// Package symtab loads a debug-symbol table from an ELF file and resolves
// code addresses to the names of their enclosing symbols.
//
// The table is built once from the kernel's debug-info file (typically
// produced with `llvm-objcopy --only-keep-debug`) and is read-only for the
// life of the process.
package symtab

import (
	"debug/elf"
	"fmt"
	"sort"
)

// Symbol is one (start, size, name) triple from the symbol table.
type Symbol struct {
	Start uint64
	Size  uint64
	Name  string
}

// Contains reports whether addr falls inside the symbol, with an inclusive
// lower bound and an exclusive upper bound.
func (s Symbol) Contains(addr uint64) bool {
	return s.Start <= addr && addr < s.Start+s.Size
}

// Table is an address-ordered symbol table supporting range-containment
// lookups. It is immutable once built and safe for concurrent readers.
type Table struct {
	syms []Symbol
}

// New builds a table from the given symbols. Zero-sized symbols can never
// contain an address and are dropped.
func New(syms []Symbol) *Table {
	kept := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if s.Size > 0 {
			kept = append(kept, s)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].Size < kept[j].Size
	})
	return &Table{syms: kept}
}

// Load reads the .symtab section of an ELF debug file into a Table.
func Load(path string) (*Table, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbol file: %w", err)
	}
	defer f.Close()

	elfSyms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("read symbol table: %w", err)
	}

	syms := make([]Symbol, 0, len(elfSyms))
	for _, s := range elfSyms {
		if s.Size == 0 || s.Name == "" {
			continue
		}
		syms = append(syms, Symbol{
			Start: s.Value,
			Size:  s.Size,
			Name:  s.Name,
		})
	}

	return New(syms), nil
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.syms)
}

// Lookup returns the name of the symbol containing addr. Symbols contain
// their start address but not their end (start <= addr < start+size).
// Symbols are assumed not to overlap, which holds for linker-produced
// kernel symbol tables.
func (t *Table) Lookup(addr uint64) (string, bool) {
	// First symbol starting after addr; the candidate is its predecessor.
	i := sort.Search(len(t.syms), func(i int) bool {
		return t.syms[i].Start > addr
	})
	if i > 0 && t.syms[i-1].Contains(addr) {
		return t.syms[i-1].Name, true
	}
	return "", false
}
