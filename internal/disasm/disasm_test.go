package disasm_test

import (
	"strings"
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/disasm"
	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

func TestDecodeMovSyscall(t *testing.T) {
	// mov $0xa, %eax ; syscall
	code := []byte{0xb8, 0x0a, 0x00, 0x00, 0x00, 0x0f, 0x05}
	insts, err := disasm.Decode(code, 0x44ff54)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(insts))
	}
	if insts[0].Mnemonic != "mov" {
		t.Fatalf("expected mov, got %q", insts[0].Mnemonic)
	}
	if !strings.Contains(insts[0].Operands, "%eax") || !strings.Contains(insts[0].Operands, "0xa") {
		t.Fatalf("unexpected operands: %q", insts[0].Operands)
	}
	if insts[0].Address != 0x44ff54 {
		t.Fatalf("unexpected address: %#x", insts[0].Address)
	}
	if insts[1].Mnemonic != "syscall" {
		t.Fatalf("expected syscall, got %q", insts[1].Mnemonic)
	}
	if insts[1].Address != 0x44ff59 {
		t.Fatalf("unexpected second instruction address: %#x", insts[1].Address)
	}
}

func TestDecodeDirectCall(t *testing.T) {
	// call 0x401050 (encoded relative to 0x401000 -> next insn at 0x401005)
	disp := int32(0x401050 - (0x401000 + 5))
	code := []byte{0xe8, byte(disp), byte(disp >> 8), byte(disp >> 16), byte(disp >> 24)}
	insts, err := disasm.Decode(code, 0x401000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insts) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(insts))
	}
	if insts[0].Mnemonic != "call" {
		t.Fatalf("expected call, got %q", insts[0].Mnemonic)
	}
	if !strings.Contains(insts[0].Operands, "0x401050") {
		t.Fatalf("expected operand to contain the absolute target, got %q", insts[0].Operands)
	}
}

func TestDecodeStopsOnInvalidByte(t *testing.T) {
	// one valid nop, then a byte sequence that isn't a valid encoding.
	code := []byte{0x90, 0x0f, 0x0f /* invalid 3DNow! opcode w/o suffix */}
	insts, err := disasm.Decode(code, 0x1000)
	if err == nil {
		t.Fatal("expected a decode error")
	}
	me, ok := err.(*manifesterr.Error)
	if !ok || me.Kind != manifesterr.KindDecodeError {
		t.Fatalf("expected KindDecodeError, got %v", err)
	}
	if len(insts) != 1 || insts[0].Mnemonic != "nop" {
		t.Fatalf("expected the leading nop to still be returned, got %v", insts)
	}
}
