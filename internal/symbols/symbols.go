// Package symbols is the Symbol Enumerator: it scans an ELF's static
// symbol table and produces the initial function-name -> FunctionRecord
// map that every later stage mutates in place.
package symbols

import (
	"debug/elf"

	"github.com/SoftengPoliTo/manifest-producer/internal/demangle"
	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

// DuplicatePolicy controls what happens when two raw symbols demangle
// to the same display name (§9 open question: the original analyzer
// silently overwrites via HashMap::insert; KeepLast reproduces that).
type DuplicatePolicy int

const (
	// KeepLast keeps whichever entry is encountered last in symbol-table
	// order, matching the original Rust analyzer's overwrite behavior.
	// This is the default.
	KeepLast DuplicatePolicy = iota
	// KeepFirst keeps whichever entry is encountered first.
	KeepFirst
	// Reject treats a demangled-name collision as a hard error.
	Reject
)

// DuplicateNameError is returned by Enumerate under DuplicatePolicy Reject.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return "duplicate demangled function name: " + e.Name
}

// Enumerate walks obj's static symbol table and returns a map of
// demangled name -> *FunctionRecord for every STT_FUNC entry with a
// defined (non-SHN_UNDEF) section. producerTag selects the demangling
// scheme (see internal/demangle).
func Enumerate(obj *elfio.Object, producerTag string, policy DuplicatePolicy) (map[string]*model.FunctionRecord, error) {
	functions := make(map[string]*model.FunctionRecord)

	for _, sym := range obj.Symbols() {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		if sym.Section == elf.SHN_UNDEF {
			continue
		}

		name, err := demangle.Demangle(sym.Name, producerTag)
		if err != nil {
			return nil, err
		}

		if existing, ok := functions[name]; ok {
			switch policy {
			case KeepFirst:
				continue
			case Reject:
				return nil, &DuplicateNameError{Name: name}
			default: // KeepLast
				_ = existing
			}
		}

		functions[name] = model.NewFunctionRecord(name, sym.Value, sym.Value+sym.Size)
	}

	return functions, nil
}
