// Package syscalltable loads the external syscall-number -> descriptor
// table C9's consumer joins discovered numbers against. A default
// Linux x86-64 table covering the syscalls exercised by the retrieved
// test corpus ships embedded in the binary, so analysis works without a
// caller-supplied file; an explicit path overrides it.
package syscalltable

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

//go:embed default_table.json
var defaultTableJSON []byte

// Table is a loaded, id-indexed syscall descriptor table.
type Table struct {
	byID map[uint64]model.SyscallDescriptor
}

// Default returns the table embedded in the binary.
func Default() (*Table, error) {
	return parse(defaultTableJSON)
}

// Load reads and parses a syscall descriptor table from path. An empty
// path returns the embedded default table instead of touching disk.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, manifesterr.Wrap(manifesterr.KindIO, err, "reading syscall table "+path)
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	var entries []model.SyscallDescriptor
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, manifesterr.Wrap(manifesterr.KindSerializationError, err, "parsing syscall table")
	}

	t := &Table{byID: make(map[uint64]model.SyscallDescriptor, len(entries))}
	for _, e := range entries {
		t.byID[e.ID] = e
	}
	return t, nil
}

// Lookup returns the descriptor for each discovered syscall number that
// has an entry in the table, deduplicated and in first-occurrence
// order. A number absent from the table is silently dropped, matching
// the original analyzer, which only records a syscall when the table
// lookup succeeds.
func (t *Table) Lookup(numbers []uint64) []model.SyscallDescriptor {
	seen := make(map[uint64]bool, len(numbers))
	var out []model.SyscallDescriptor
	for _, n := range numbers {
		if seen[n] {
			continue
		}
		seen[n] = true
		if d, ok := t.byID[n]; ok {
			out = append(out, d)
		}
	}
	return out
}
