// Package elfio is the Object Reader: it parses an ELF file's headers,
// section table, symbol table, dynamic table, and program headers, and
// exposes the two linear-scan lookups the rest of the analyzer needs
// (the .text section, and "what symbol sits at this address").
//
// Grounded on the standard library's debug/elf, the same package
// google/pprof's internal/binutils opens binaries with directly -
// there is no actively maintained third-party ELF reader in the Go
// ecosystem that improves on it for this workload.
package elfio

import (
	"bytes"
	"debug/elf"
	"io"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

const textSectionName = ".text"

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Object wraps a parsed ELF file and caches the lookups the analyzer
// performs repeatedly: the symbol table and the .text section header.
type Object struct {
	File *elf.File
	Size int64

	syms     []elf.Symbol
	dynsyms  []elf.Symbol
	textSect *elf.Section

	rawCounts   headerCounts
	rawCountsOK bool
}

// headerCounts are the raw ELF header fields debug/elf consumes while
// building File.Sections/File.Progs and does not otherwise retain -
// the integrity checker needs them to compare the header's reported
// counts against what was actually parsed.
type headerCounts struct {
	ehsize   uint16
	phnum    uint16
	shnum    uint16
	shstrndx uint16
}

// Open validates the magic bytes, parses the ELF structure, and
// classifies structural failures into the analyzer's error taxonomy.
// It does not itself reject stripped binaries or non-x86-64 machines;
// callers that need those checks call RequireX8664 and IsStripped (as
// cmd/manifest-producer does).
func Open(r io.ReaderAt, size int64) (*Object, error) {
	header := make([]byte, 4)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, manifesterr.Wrap(manifesterr.KindIO, err, "reading ELF header")
	}
	if !bytes.Equal(header, elfMagic) {
		return nil, manifesterr.New(manifesterr.KindBadMagic, "file does not start with the ELF magic number")
	}

	f, err := elf.NewFile(r)
	if err != nil {
		return nil, manifesterr.Wrap(manifesterr.KindMalformed, err, "parsing ELF structure")
	}

	obj := &Object{File: f, Size: size}

	syms, symErr := f.Symbols()
	if symErr == nil {
		obj.syms = syms
	}
	if dynsyms, dynErr := f.DynamicSymbols(); dynErr == nil {
		obj.dynsyms = dynsyms
	}
	if counts, ok := readHeaderCounts(r, f); ok {
		obj.rawCounts = counts
		obj.rawCountsOK = true
	}

	return obj, nil
}

// readHeaderCounts re-reads the fixed-layout ELF header fields that
// debug/elf parses but does not expose on elf.File once Sections and
// Progs have been built. It supports ELFCLASS32 and ELFCLASS64 only;
// anything else reports !ok.
func readHeaderCounts(r io.ReaderAt, f *elf.File) (headerCounts, bool) {
	var buf []byte
	switch f.Class {
	case elf.ELFCLASS64:
		buf = make([]byte, 64)
	case elf.ELFCLASS32:
		buf = make([]byte, 52)
	default:
		return headerCounts{}, false
	}
	if _, err := r.ReadAt(buf, 0); err != nil {
		return headerCounts{}, false
	}

	bo := f.ByteOrder
	if f.Class == elf.ELFCLASS64 {
		return headerCounts{
			ehsize:   bo.Uint16(buf[52:54]),
			phnum:    bo.Uint16(buf[56:58]),
			shnum:    bo.Uint16(buf[60:62]),
			shstrndx: bo.Uint16(buf[62:64]),
		}, true
	}
	return headerCounts{
		ehsize:   bo.Uint16(buf[40:42]),
		phnum:    bo.Uint16(buf[44:46]),
		shnum:    bo.Uint16(buf[48:50]),
		shstrndx: bo.Uint16(buf[50:52]),
	}, true
}

// NewFromParts builds an Object directly from an already-parsed
// *elf.File and symbol tables, bypassing Open's byte-level validation.
// Exported for tests in sibling packages that need a synthetic Object
// without constructing real ELF bytes.
func NewFromParts(f *elf.File, syms, dynsyms []elf.Symbol) *Object {
	return &Object{File: f, syms: syms, dynsyms: dynsyms}
}

// IsStripped reports whether the static symbol table (and its backing
// string table) is absent, mirroring the original analyzer's
// has_sections(SHT_SYMTAB) && has_sections(SHT_STRTAB) check.
func (o *Object) IsStripped() bool {
	hasSymtab, hasStrtab := false, false
	for _, sec := range o.File.Sections {
		switch sec.Type {
		case elf.SHT_SYMTAB:
			hasSymtab = true
		case elf.SHT_STRTAB:
			hasStrtab = true
		}
	}
	return !hasSymtab || !hasStrtab
}

// RequireX8664 returns KindUnsupportedArch unless the binary targets
// x86-64; every downstream component assumes this has already passed.
func (o *Object) RequireX8664() error {
	if o.File.Machine != elf.EM_X86_64 {
		return manifesterr.New(manifesterr.KindUnsupportedArch,
			"architecture "+o.File.Machine.String()+" is not supported (only x86_64 is)")
	}
	return nil
}

// ArchName renders the binary's machine type as the clean label the
// manifest reports, rather than debug/elf's raw constant name
// ("EM_X86_64"). Callers are expected to have already checked
// RequireX8664.
func (o *Object) ArchName() (string, error) {
	switch o.File.Machine {
	case elf.EM_X86_64:
		return "x86_64", nil
	default:
		return "", manifesterr.New(manifesterr.KindUnsupportedArch,
			"architecture "+o.File.Machine.String()+" is not supported (only x86_64 is)")
	}
}

// FileTypeName renders the ELF header's object type as the manifest's
// two-valued label, rather than debug/elf's raw constant name
// ("ET_EXEC"/"ET_DYN").
func (o *Object) FileTypeName() (string, error) {
	switch o.File.Type {
	case elf.ET_EXEC:
		return "Executable", nil
	case elf.ET_DYN:
		return "Dynamic Library", nil
	default:
		return "", manifesterr.New(manifesterr.KindMalformed,
			"file type "+o.File.Type.String()+" is neither an executable nor a dynamic library")
	}
}

// TextSection returns the single PROGBITS section literally named
// ".text", or KindTextSectionNotFound if the binary has none.
func (o *Object) TextSection() (*elf.Section, error) {
	if o.textSect != nil {
		return o.textSect, nil
	}
	for _, sec := range o.File.Sections {
		if sec.Type == elf.SHT_PROGBITS && sec.Name == textSectionName {
			o.textSect = sec
			return sec, nil
		}
	}
	return nil, manifesterr.New(manifesterr.KindTextSectionNotFound, "binary has no .text section")
}

// Symbols returns the cached static symbol table (possibly empty).
func (o *Object) Symbols() []elf.Symbol { return o.syms }

// DynamicSymbols returns the cached dynamic symbol table (possibly empty).
func (o *Object) DynamicSymbols() []elf.Symbol { return o.dynsyms }

// SymbolNameAt returns the name of the symbol whose value exactly
// equals vaddr, scanning the static table first and falling back to
// the .text section's own name (matching the original analyzer's
// get_name_addr, which falls back to the section name rather than
// failing outright so unresolved-but-in-range call targets still
// render something in the disassembly listing).
func (o *Object) SymbolNameAt(vaddr uint64) (string, bool) {
	for _, sym := range o.syms {
		if sym.Value == vaddr {
			return sym.Name, true
		}
	}
	if sec, err := o.TextSection(); err == nil {
		return sec.Name, true
	}
	return "", false
}

// IsStaticallyLinked reports whether the binary has no PT_DYNAMIC
// program header.
func (o *Object) IsStaticallyLinked() bool {
	for _, prog := range o.File.Progs {
		if prog.Type == elf.PT_DYNAMIC {
			return false
		}
	}
	return true
}

// IsPIE reports whether the dynamic table carries DF_1_PIE in its
// DT_FLAGS_1 entry.
func (o *Object) IsPIE() bool {
	vals, err := o.File.DynValue(elf.DT_FLAGS_1)
	if err != nil {
		return false
	}
	for _, v := range vals {
		if elf.DynFlag1(v)&elf.DF_1_PIE != 0 {
			return true
		}
	}
	return false
}

// HeaderCounts returns the ELF header's own reported e_ehsize, e_phnum,
// e_shnum, and e_shstrndx fields, for comparison against the counts
// debug/elf actually parsed into File.Progs/File.Sections. ok is false
// for objects built via NewFromParts, which never read raw bytes.
func (o *Object) HeaderCounts() (ehsize, phnum, shnum, shstrndx uint16, ok bool) {
	return o.rawCounts.ehsize, o.rawCounts.phnum, o.rawCounts.shnum, o.rawCounts.shstrndx, o.rawCountsOK
}

// NeededLibraries returns the DT_NEEDED entries, in table order.
func (o *Object) NeededLibraries() []string {
	libs, err := o.File.ImportedLibraries()
	if err != nil {
		return nil
	}
	return libs
}
