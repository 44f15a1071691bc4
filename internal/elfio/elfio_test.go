package elfio_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

// minimalELF64 builds the smallest header debug/elf will parse: no
// sections, no program headers, a little-endian x86-64 executable.
func minimalELF64(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, 64)
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = byte(elf.ELFCLASS64)
	buf[5] = byte(elf.ELFDATA2LSB)
	buf[6] = byte(elf.EV_CURRENT)
	bo := binary.LittleEndian
	bo.PutUint16(buf[16:18], uint16(elf.ET_EXEC))
	bo.PutUint16(buf[18:20], uint16(elf.EM_X86_64))
	bo.PutUint32(buf[20:24], uint32(elf.EV_CURRENT))
	bo.PutUint16(buf[52:54], 64) // e_ehsize
	bo.PutUint16(buf[58:60], 56) // e_shentsize
	return buf
}

func TestOpenRejectsBadMagic(t *testing.T) {
	data := bytes.Repeat([]byte{0x00}, 64)
	_, err := elfio.Open(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		t.Fatal("expected an error for non-ELF input")
	}
	me, ok := err.(*manifesterr.Error)
	if !ok || me.Kind != manifesterr.KindBadMagic {
		t.Fatalf("expected KindBadMagic, got %v", err)
	}
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	data := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1}
	_, err := elfio.Open(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		t.Fatal("expected an error for a truncated ELF header")
	}
	me, ok := err.(*manifesterr.Error)
	if !ok || me.Kind != manifesterr.KindMalformed {
		t.Fatalf("expected KindMalformed, got %v", err)
	}
}

func TestRequireX8664(t *testing.T) {
	obj := &elfio.Object{File: &elf.File{FileHeader: elf.FileHeader{Machine: elf.EM_ARM}}}
	err := obj.RequireX8664()
	if err == nil {
		t.Fatal("expected an error for a non-x86_64 machine type")
	}
	me, ok := err.(*manifesterr.Error)
	if !ok || me.Kind != manifesterr.KindUnsupportedArch {
		t.Fatalf("expected KindUnsupportedArch, got %v", err)
	}
}

func TestTextSectionNotFound(t *testing.T) {
	obj := &elfio.Object{File: &elf.File{}}
	_, err := obj.TextSection()
	if err == nil {
		t.Fatal("expected an error when .text is absent")
	}
	me, ok := err.(*manifesterr.Error)
	if !ok || me.Kind != manifesterr.KindTextSectionNotFound {
		t.Fatalf("expected KindTextSectionNotFound, got %v", err)
	}
}

func TestOpenPopulatesHeaderCounts(t *testing.T) {
	data := minimalELF64(t)
	obj, err := elfio.Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ehsize, phnum, shnum, shstrndx, ok := obj.HeaderCounts()
	if !ok {
		t.Fatal("expected header counts to be available for an Open-constructed Object")
	}
	if ehsize != 64 || phnum != 0 || shnum != 0 || shstrndx != 0 {
		t.Fatalf("unexpected header counts: ehsize=%d phnum=%d shnum=%d shstrndx=%d", ehsize, phnum, shnum, shstrndx)
	}
}

func TestHeaderCountsUnavailableFromParts(t *testing.T) {
	obj := elfio.NewFromParts(&elf.File{}, nil, nil)
	if _, _, _, _, ok := obj.HeaderCounts(); ok {
		t.Fatal("expected HeaderCounts to be unavailable for a NewFromParts Object")
	}
}

func TestArchName(t *testing.T) {
	obj := &elfio.Object{File: &elf.File{FileHeader: elf.FileHeader{Machine: elf.EM_X86_64}}}
	name, err := obj.ArchName()
	if err != nil || name != "x86_64" {
		t.Fatalf("expected x86_64, got %q, %v", name, err)
	}

	obj = &elfio.Object{File: &elf.File{FileHeader: elf.FileHeader{Machine: elf.EM_ARM}}}
	if _, err := obj.ArchName(); err == nil {
		t.Fatal("expected an error for a non-x86_64 machine type")
	}
}

func TestFileTypeName(t *testing.T) {
	cases := []struct {
		typ     elf.Type
		want    string
		wantErr bool
	}{
		{elf.ET_EXEC, "Executable", false},
		{elf.ET_DYN, "Dynamic Library", false},
		{elf.ET_REL, "", true},
	}
	for _, c := range cases {
		obj := &elfio.Object{File: &elf.File{FileHeader: elf.FileHeader{Type: c.typ}}}
		got, err := obj.FileTypeName()
		if c.wantErr {
			if err == nil {
				t.Errorf("type %v: expected an error, got %q", c.typ, got)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("type %v: got %q, %v, want %q", c.typ, got, err, c.want)
		}
	}
}

func TestSymbolNameAtFallsBackToTextSectionName(t *testing.T) {
	obj := &elfio.Object{File: &elf.File{
		Sections: []*elf.Section{
			{SectionHeader: elf.SectionHeader{Name: ".text", Type: elf.SHT_PROGBITS, Addr: 0x1000}},
		},
	}}
	name, ok := obj.SymbolNameAt(0x1234)
	if !ok || name != ".text" {
		t.Fatalf("expected fallback to .text, got %q, %v", name, ok)
	}
}
