package syscallclass_test

import (
	"reflect"
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/syscallclass"
)

func TestClassifyDirectImmediate(t *testing.T) {
	disasm := "0x1000:\tmov\t$0xa,%eax\n0x1005:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if !reflect.DeepEqual(got, []uint64{10}) {
		t.Fatalf("expected [10], got %v", got)
	}
}

func TestClassifyRegisterToRegisterPropagation(t *testing.T) {
	disasm := "0x1000:\tmov\t$0x3c,%eax\n0x1005:\tmov\t%eax,%edi\n0x1008:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if !reflect.DeepEqual(got, []uint64{60}) {
		t.Fatalf("expected [60], got %v", got)
	}
}

func TestClassifySelfXorZeroesRegister(t *testing.T) {
	disasm := "0x1000:\tmov\t$0x1,%eax\n0x1005:\txor\t%eax,%eax\n0x1007:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if !reflect.DeepEqual(got, []uint64{0}) {
		t.Fatalf("expected [0], got %v", got)
	}
}

func TestClassifyMultipleSyscallSites(t *testing.T) {
	disasm := "0x1000:\tmov\t$0x1,%eax\n0x1005:\tsyscall\t\t(System Call Invoked)\n\n0x1007:\tmov\t$0x3c,%eax\n0x100c:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if !reflect.DeepEqual(got, []uint64{1, 60}) {
		t.Fatalf("expected [1, 60], got %v", got)
	}
}

func TestClassifyRaxMoveIsNotAnAccumulator(t *testing.T) {
	disasm := "0x1000:\tmov\t$0xa,%rax\n0x1005:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if len(got) != 0 {
		t.Fatalf("expected a move into %%rax to not be tracked as the syscall accumulator, got %v", got)
	}
}

func TestClassifyUntrackedAccumulatorIsSkipped(t *testing.T) {
	disasm := "0x1000:\tcall\t0x2000\t<helper>\n\n0x1005:\tsyscall\t\t(System Call Invoked)\n\n"
	got := syscallclass.Classify(disasm)
	if len(got) != 0 {
		t.Fatalf("expected no syscalls attributed without a tracked accumulator, got %v", got)
	}
}
