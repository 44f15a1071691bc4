package callgraph_test

import (
	"debug/elf"
	"strings"
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/callgraph"
	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

func stubDemangler(raw, _ string) (string, error) { return raw, nil }

func TestTextSliceBasic(t *testing.T) {
	sect := &elf.Section{SectionHeader: elf.SectionHeader{Addr: 0x1000, Offset: 0x100, Size: 0x100}}
	fileData := make([]byte, 0x300)
	for i := range fileData {
		fileData[i] = byte(i)
	}
	f := model.NewFunctionRecord("helper", 0x1010, 0x1020)

	slice, err := callgraph.TextSlice(fileData, sect, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slice) != 0x10 {
		t.Fatalf("expected a 16-byte slice, got %d", len(slice))
	}
	if slice[0] != fileData[0x110] {
		t.Fatalf("slice does not start at the expected file offset")
	}
}

func TestTextSliceBeforeSection(t *testing.T) {
	sect := &elf.Section{SectionHeader: elf.SectionHeader{Addr: 0x1000, Offset: 0x100, Size: 0x100}}
	f := model.NewFunctionRecord("plt_stub", 0x800, 0x810)

	slice, err := callgraph.TextSlice(make([]byte, 0x300), sect, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slice != nil {
		t.Fatalf("expected a nil slice for a function outside .text, got %v", slice)
	}
}

func TestTextSliceOutOfBounds(t *testing.T) {
	sect := &elf.Section{SectionHeader: elf.SectionHeader{Addr: 0x1000, Offset: 0x100, Size: 0x100}}
	f := model.NewFunctionRecord("overrun", 0x1010, 0x9010)

	_, err := callgraph.TextSlice(make([]byte, 0x300), sect, f)
	if err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
}

func TestResolveCallUnresolvedOperand(t *testing.T) {
	obj := elfio.NewFromParts(&elf.File{}, nil, nil)
	_, ok := callgraph.ResolveCall("%rax", "C99", obj, stubDemangler)
	if ok {
		t.Fatal("expected an indirect-call operand to fail resolution")
	}
}

func TestResolveCallDirectAddress(t *testing.T) {
	syms := []elf.Symbol{{Name: "target_fn", Value: 0x401050}}
	obj := elfio.NewFromParts(&elf.File{}, syms, nil)

	name, ok := callgraph.ResolveCall("0x401050", "C99", obj, stubDemangler)
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if name != "target_fn" {
		t.Fatalf("unexpected resolved name: %q", name)
	}
}

func TestAnalyzePopulatesChildrenAndSyscall(t *testing.T) {
	// .text starts 0x10 bytes before the function, so the function's
	// bytes sit at file offset 0x10.
	sect := &elf.Section{SectionHeader: elf.SectionHeader{Addr: 0xff0, Offset: 0x0, Size: 0x100}}

	// call 0x1020 ; mov $0xa,%eax ; syscall
	disp := int32(0x1020 - (0x1000 + 5))
	code := []byte{
		0xe8, byte(disp), byte(disp >> 8), byte(disp >> 16), byte(disp >> 24),
		0xb8, 0x0a, 0x00, 0x00, 0x00,
		0x0f, 0x05,
	}
	fileData := make([]byte, 0x100)
	copy(fileData[0x10:], code)

	caller := model.NewFunctionRecord("caller", 0x1000, 0x1000+uint64(len(code)))
	callee := model.NewFunctionRecord("callee", 0x1020, 0x1030)
	functions := map[string]*model.FunctionRecord{"caller": caller, "callee": callee}
	names := callgraph.NewNameIndex(functions)

	syms := []elf.Symbol{{Name: "callee", Value: 0x1020}}
	obj := elfio.NewFromParts(&elf.File{}, syms, nil)

	if err := callgraph.Analyze(caller, fileData, sect, obj, "C99", names, stubDemangler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(caller.Children) != 1 || caller.Children[0] != "callee" {
		t.Fatalf("expected callee as the sole child, got %v", caller.Children)
	}
	if !caller.HasSyscall {
		t.Fatal("expected HasSyscall to be set")
	}
	if caller.Disassembly == nil {
		t.Fatal("expected a disassembly listing to be recorded")
	}
	if !strings.Contains(*caller.Disassembly, "<callee>") {
		t.Fatalf("expected the resolved callee name in the listing, got %q", *caller.Disassembly)
	}
	if !strings.Contains(*caller.Disassembly, "(System Call Invoked)") {
		t.Fatalf("expected the syscall marker in the listing, got %q", *caller.Disassembly)
	}
}

func TestAnalyzeUnresolvedCallMarker(t *testing.T) {
	sect := &elf.Section{SectionHeader: elf.SectionHeader{Addr: 0xff0, Offset: 0x0, Size: 0x100}}
	// call *%rax (indirect) encoded as FF D0
	code := []byte{0xff, 0xd0}
	fileData := make([]byte, 0x100)
	copy(fileData[0x10:], code)

	f := model.NewFunctionRecord("indirect_caller", 0x1000, 0x1000+uint64(len(code)))
	obj := elfio.NewFromParts(&elf.File{}, nil, nil)

	if err := callgraph.Analyze(f, fileData, sect, obj, "C99", callgraph.NameIndex{}, stubDemangler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Children) != 0 {
		t.Fatalf("expected no children for an indirect call, got %v", f.Children)
	}
	if !strings.Contains(*f.Disassembly, "(Register Offset-GOT)") {
		t.Fatalf("expected the unresolved-call marker, got %q", *f.Disassembly)
	}
}

func TestCountInvocations(t *testing.T) {
	functions := map[string]*model.FunctionRecord{
		"main":   model.NewFunctionRecord("main", 0x1000, 0x1010),
		"helper": model.NewFunctionRecord("helper", 0x2000, 0x2010),
	}
	functions["main"].AddChild("helper")

	callgraph.CountInvocations(functions)

	if functions["helper"].InboundCount != 1 {
		t.Fatalf("expected helper's inbound count to be 1, got %d", functions["helper"].InboundCount)
	}
	if functions["main"].InboundCount != 0 {
		t.Fatalf("expected main's inbound count to stay 0, got %d", functions["main"].InboundCount)
	}
}
