// Package disasm is the Disassembler Driver: it linearly decodes an
// x86-64 byte slice into an ordered sequence of instructions rendered
// in AT&T operand syntax.
//
// Grounded on golang.org/x/arch/x86/x86asm, the Go toolchain's own x86
// decoder (the package cmd/objdump and google/pprof build on, and the
// one exercised directly by the retrieved mewmew/x lifter's
// decodeInst). No second-sourced Go x86 disassembler improves on it.
package disasm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

// Instruction is one decoded x86-64 instruction.
type Instruction struct {
	Address  uint64
	Mnemonic string
	Operands string
}

// Decode linearly decodes data as 64-bit-mode x86-64 machine code
// starting at virtual address addr. It returns every instruction
// successfully decoded before a failure, plus a KindDecodeError if
// decoding stopped early; callers (the call-graph builder) treat a
// partial result as usable, matching the specification's "a per-function
// decoding error stops that function's analysis but is not fatal to the
// run" contract.
func Decode(data []byte, addr uint64) ([]Instruction, error) {
	var out []Instruction
	offset := 0

	for offset < len(data) {
		inst, err := x86asm.Decode(data[offset:], 64)
		if err != nil {
			return out, manifesterr.Wrap(manifesterr.KindDecodeError, err,
				fmt.Sprintf("decoding instruction at 0x%x", addr+uint64(offset)))
		}
		if inst.Len <= 0 {
			return out, manifesterr.New(manifesterr.KindDecodeError,
				fmt.Sprintf("zero-length instruction at 0x%x", addr+uint64(offset)))
		}

		instAddr := addr + uint64(offset)
		mnemonic, operands := splitATT(x86asm.GNUSyntax(inst, instAddr, nil))
		out = append(out, Instruction{Address: instAddr, Mnemonic: mnemonic, Operands: operands})

		offset += inst.Len
	}

	return out, nil
}

// splitATT separates the GNU/AT&T syntax line x86asm renders into a
// lowercased mnemonic (the first whitespace-delimited token) and the
// remaining operand text, trimmed of surrounding whitespace.
func splitATT(line string) (mnemonic, operands string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	mnemonic = strings.ToLower(fields[0])
	operands = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	return mnemonic, operands
}
