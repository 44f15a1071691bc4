// Package callgraph builds the per-function call graph: slicing each
// function's machine code out of .text (C4), resolving direct-call
// operands back to symbol names (C6), driving the disassembler to
// populate each function's children, disassembly listing and syscall
// flag (C7), and tallying inbound invocation counts across the whole
// function table (C8).
package callgraph

import (
	"debug/elf"
	"fmt"
	"strconv"
	"strings"

	"github.com/SoftengPoliTo/manifest-producer/internal/disasm"
	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

// unresolvedCallMarker is emitted for a call whose target could not be
// resolved to a known symbol (an indirect call through a register or a
// GOT/PLT slot).
const unresolvedCallMarker = "(Register Offset-GOT)"

// syscallMarker is emitted on the line of a syscall instruction.
const syscallMarker = "(System Call Invoked)"

// NameIndex is an immutable snapshot of every known function name,
// built once before a batch of Analyze calls so each call can check
// "is this resolved callee one of ours" without holding a reference to
// the (possibly still-mutating) function map itself.
type NameIndex map[string]struct{}

// NewNameIndex snapshots the keys of functions.
func NewNameIndex(functions map[string]*model.FunctionRecord) NameIndex {
	idx := make(NameIndex, len(functions))
	for name := range functions {
		idx[name] = struct{}{}
	}
	return idx
}

// Demangler maps a raw symbol name to its demangled display form, per
// the producer tag. internal/demangle.Demangle satisfies this; tests
// supply stubs so callgraph tests don't need real mangled names.
type Demangler func(rawName, producerTag string) (string, error)

// TextSlice returns the bytes of f's machine code within the .text
// section t, read from fileData (the whole file's raw contents), per
// C4: the file range [t.Offset+(f.StartAddr-t.Addr),
// t.Offset+(f.EndAddr-t.Addr)). A function whose start address is at or
// below t's own virtual address is not in .text; TextSlice returns a nil
// slice and no error so the caller skips it silently, matching the
// original analyzer's init_disassembly behavior.
func TextSlice(fileData []byte, t *elf.Section, f *model.FunctionRecord) ([]byte, error) {
	if f.StartAddr <= t.Addr || f.EndAddr < f.StartAddr {
		return nil, nil
	}

	start := t.Offset + (f.StartAddr - t.Addr)
	end := t.Offset + (f.EndAddr - t.Addr)

	if end > uint64(len(fileData)) || start > end {
		return nil, manifesterr.New(manifesterr.KindMalformed,
			fmt.Sprintf("function %q's address range is out of bounds for .text", f.Name))
	}

	return fileData[start:end], nil
}

// ResolveCall recovers the callee symbol name for a direct-call operand
// string (as rendered by the disassembler, e.g. "0x401050"). Anything
// that isn't a bare "0x"-prefixed absolute address - a register, a
// memory operand, a GOT/PLT indirection - yields ("", false), per C6.
func ResolveCall(operand, producerTag string, obj *elfio.Object, demangler Demangler) (string, bool) {
	operand = strings.TrimSpace(operand)
	if !strings.HasPrefix(operand, "0x") {
		return "", false
	}

	addr, err := strconv.ParseUint(operand[2:], 16, 64)
	if err != nil {
		return "", false
	}

	rawName, ok := obj.SymbolNameAt(addr)
	if !ok {
		return "", false
	}

	name, err := demangler(rawName, producerTag)
	if err != nil {
		return "", false
	}
	return name, true
}

// Analyze slices, decodes and annotates f in place: it populates
// f.Children (deduplicated, first-occurrence order), f.Disassembly
// (the full §6 listing) and f.HasSyscall. A decode error part-way
// through the function is returned alongside whatever partial listing
// was produced before the failure - Analyze itself never treats this
// as fatal; that decision belongs to the caller (the driver, §7).
func Analyze(f *model.FunctionRecord, fileData []byte, textSect *elf.Section, obj *elfio.Object, producerTag string, names NameIndex, demangler Demangler) error {
	code, err := TextSlice(fileData, textSect, f)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return nil
	}

	insts, decErr := disasm.Decode(code, f.StartAddr)

	var sb strings.Builder
	for _, inst := range insts {
		switch inst.Mnemonic {
		case "call":
			line := fmt.Sprintf("0x%x:\t%s\t%s", inst.Address, inst.Mnemonic, inst.Operands)
			resolved, ok := ResolveCall(inst.Operands, producerTag, obj, demangler)
			if ok {
				if _, known := names[resolved]; known {
					f.AddChild(resolved)
				}
				line += fmt.Sprintf("\t<%s>", resolved)
			} else {
				line += "\t" + unresolvedCallMarker
			}
			sb.WriteString(line + "\n\n")
		case "syscall":
			f.HasSyscall = true
			sb.WriteString(fmt.Sprintf("0x%x:\tsyscall\t\t%s", inst.Address, syscallMarker) + "\n\n")
		default:
			sb.WriteString(fmt.Sprintf("0x%x:\t%s\t%s", inst.Address, inst.Mnemonic, inst.Operands) + "\n")
		}
	}
	f.SetDisassembly(sb.String())

	return decErr
}

// CountInvocations performs C8's single pass over functions: for every
// name appearing in some function's Children, increment that callee's
// InboundCount. Each edge contributes exactly once, since C7 dedups
// Children on insert.
func CountInvocations(functions map[string]*model.FunctionRecord) {
	for _, f := range functions {
		for _, child := range f.Children {
			if callee, ok := functions[child]; ok {
				callee.InboundCount++
			}
		}
	}
}
