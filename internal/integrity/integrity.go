// Package integrity is the Integrity Checker (C12): a fixed battery of
// pure, read-only checks over a parsed ELF file, grounded on the
// original Rust analyzer's checks.rs. It is an optional sibling to the
// call-graph pipeline - it reads only the parsed object from the Object
// Reader (C1), and its output says nothing about, and depends on
// nothing from, C2-C11.
package integrity

import (
	"debug/elf"
	"encoding/json"
	"strings"

	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

// interpreterWhitelist lists the dynamic loaders considered standard;
// anything else is flagged as suspicious.
var interpreterWhitelist = map[string]bool{
	"/lib64/ld-linux-x86-64.so.2": true,
	"/lib/ld-linux.so.2":          true,
	"/lib/ld-musl-x86_64.so.1":    true,
}

// allowedLibDirs are the absolute directories a RUNPATH/RPATH entry may
// point into without being flagged.
var allowedLibDirs = []string{"/usr/lib", "/lib", "/lib64"}

// Validate runs every check category against obj and assembles the report.
func Validate(obj *elfio.Object, path string, fileSize int64) *model.IntegrityReport {
	return &model.IntegrityReport{
		BinaryPath: path,
		Categories: []model.CategoryResult{
			basicStructural(obj, fileSize),
			memoryMapping(obj, fileSize),
			protectionMechanisms(obj),
			dependenciesAndEnvironment(obj),
		},
	}
}

func check(name string, status bool, description string) model.CheckResult {
	return model.CheckResult{Name: name, Status: status, Description: description}
}

func checkWithMeta(name string, status bool, description string, meta interface{}) model.CheckResult {
	c := check(name, status, description)
	if raw, err := json.Marshal(meta); err == nil {
		c.Metadata = raw
	}
	return c
}

func basicStructural(obj *elfio.Object, fileSize int64) model.CategoryResult {
	f := obj.File

	sectionsInBounds := true
	for _, sec := range f.Sections {
		if sec.Type == elf.SHT_NOBITS {
			continue
		}
		if int64(sec.Offset+sec.Size) > fileSize {
			sectionsInBounds = false
			break
		}
	}

	segmentsInBounds := true
	for _, prog := range f.Progs {
		if int64(prog.Off+prog.Filesz) > fileSize {
			segmentsInBounds = false
			break
		}
	}

	archClassConsistent := !(f.Machine == elf.EM_X86_64 && f.Class != elf.ELFCLASS64)
	encodingConsistent := dataEncodingConsistent(f.Machine, f.Data)

	checks := []model.CheckResult{
		check("supported-class", f.Class == elf.ELFCLASS64, "the object is a 64-bit ELF"),
		check("architecture-class-consistency", archClassConsistent, "the machine type agrees with the declared class"),
		check("data-encoding-consistency", encodingConsistent, "the byte order is consistent with the declared machine type"),
		check("has-section-header-table", len(f.Sections) > 0, "the object carries a section header table"),
		check("section-offsets-in-bounds", sectionsInBounds, "every PROGBITS/non-NOBITS section fits within the file"),
		check("segment-offsets-in-bounds", segmentsInBounds, "every segment's file range fits within the file"),
	}

	if ehsize, _, _, shstrndx, ok := obj.HeaderCounts(); ok {
		expectedEhsize := uint16(52)
		if f.Class == elf.ELFCLASS64 {
			expectedEhsize = 64
		}
		checks = append(checks,
			checkWithMeta("header-size-consistency", ehsize == expectedEhsize,
				"e_ehsize matches the size expected for the object's class",
				map[string]uint16{"ehsize": ehsize, "expected": expectedEhsize}),
			checkWithMeta("section-header-string-index-valid", shstrndx == 0 || int(shstrndx) < len(f.Sections),
				"e_shstrndx references a section that actually exists",
				map[string]interface{}{"shstrndx": shstrndx, "section_count": len(f.Sections)}),
		)
	}

	return model.CategoryResult{
		Name:        "basic-structural-validation",
		Description: "ELF header, class, and table-bounds sanity checks",
		Checks:      checks,
	}
}

// dataEncodingConsistent mirrors the original checker's
// is_data_encoding_consistent: little/big-endian byte order should
// agree with the architectures that conventionally use it (e.g. a
// big-endian EM_X86_64 header, which only a corrupted or hand-crafted
// file carries, is flagged). Machines outside both lists are not
// flagged for either byte order; an encoding that is neither LSB nor
// MSB is always flagged.
func dataEncodingConsistent(m elf.Machine, data elf.Data) bool {
	switch data {
	case elf.ELFDATA2LSB:
		return !bigEndianArchs[m] || littleEndianArchs[m]
	case elf.ELFDATA2MSB:
		return !littleEndianArchs[m] || bigEndianArchs[m]
	default:
		return false
	}
}

var littleEndianArchs = map[elf.Machine]bool{
	elf.EM_386: true, elf.EM_X86_64: true, elf.EM_ARM: true, elf.EM_AARCH64: true,
}

var bigEndianArchs = map[elf.Machine]bool{
	elf.EM_SPARC: true, elf.EM_SPARCV9: true, elf.EM_PPC: true, elf.EM_PPC64: true,
}

func memoryMapping(obj *elfio.Object, fileSize int64) model.CategoryResult {
	f := obj.File

	entryResident := entryPointInExecutableLoad(f)

	alignOK := true
	for _, prog := range f.Progs {
		if prog.Align != 0 && prog.Align&(prog.Align-1) != 0 {
			alignOK = false
			break
		}
	}

	suspiciousNames := false
	for _, sec := range f.Sections {
		if sec.Name == "" || !isPrintable(sec.Name) {
			suspiciousNames = true
			break
		}
	}

	noOverlap, noEmpty := true, true
	var loads []*elf.Prog
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD {
			loads = append(loads, prog)
			if prog.Memsz == 0 {
				noEmpty = false
			}
		}
	}
	for i := 0; i < len(loads); i++ {
		for j := i + 1; j < len(loads); j++ {
			if rangesOverlap(loads[i].Vaddr, loads[i].Memsz, loads[j].Vaddr, loads[j].Memsz) {
				noOverlap = false
			}
		}
	}

	upx := hasUPXMarker(f) || hasImplausiblySmallText(obj, fileSize)

	addrOffsetCongruent := true
	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_ALLOC == 0 || sec.Addralign <= 1 {
			continue
		}
		if sec.Addr%sec.Addralign != sec.Offset%sec.Addralign {
			addrOffsetCongruent = false
			break
		}
	}

	checks := []model.CheckResult{
		check("entry-point-in-executable-segment", entryResident, "the entry point falls inside an executable PT_LOAD segment"),
		check("segment-alignment-power-of-two", alignOK, "every segment's alignment is a power of two"),
		check("section-address-offset-congruence", addrOffsetCongruent, "every SHF_ALLOC section's sh_addr is congruent to sh_offset modulo its alignment"),
		check("no-suspicious-section-names", !suspiciousNames, "no section name is empty or non-printable"),
		check("no-empty-load-segments", noEmpty, "no PT_LOAD segment has zero memory size"),
		check("no-overlapping-load-segments", noOverlap, "no two PT_LOAD segments overlap in virtual memory"),
		check("no-upx-packing-heuristic", !upx, "no UPX-style section markers or implausibly small .text"),
	}

	if _, phnum, shnum, _, ok := obj.HeaderCounts(); ok {
		reportedShnum := int(shnum)
		if reportedShnum == 0 && len(f.Sections) > 0 {
			// e_shnum == 0 means the real count overflowed into
			// section[0].sh_size (the SHN_XINDEX convention).
			reportedShnum = int(f.Sections[0].Size)
		}
		checks = append(checks,
			checkWithMeta("segment-count-consistency", int(phnum) == len(f.Progs),
				"e_phnum matches the number of program headers actually parsed",
				map[string]int{"reported": int(phnum), "actual": len(f.Progs)}),
			checkWithMeta("section-count-consistency", len(f.Sections) == 0 || reportedShnum == len(f.Sections),
				"e_shnum matches the number of section headers actually parsed",
				map[string]int{"reported": reportedShnum, "actual": len(f.Sections)}),
		)
	}

	return model.CategoryResult{
		Name:        "memory-mapping-and-segments",
		Description: "segment/section layout and packer heuristics",
		Checks:      checks,
	}
}

func protectionMechanisms(obj *elfio.Object) model.CategoryResult {
	f := obj.File

	nx := true
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_GNU_STACK && prog.Flags&elf.PF_X != 0 {
			nx = false
		}
	}

	relro := false
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_GNU_RELRO {
			relro = true
		}
	}
	bindNow := dynFlagSet(f, elf.DT_BIND_NOW) || dynFlag1Set(f, elf.DF_1_NOW) || dynFlagBitSet(f, elf.DT_FLAGS, uint64(elf.DF_BIND_NOW))

	canary := hasSymbol(obj, "__stack_chk_fail") || hasSymbol(obj, "__stack_chk_guard")

	pie := f.Type == elf.ET_DYN && obj.IsPIE()

	noWX := true
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD && prog.Flags&elf.PF_W != 0 && prog.Flags&elf.PF_X != 0 {
			noWX = false
		}
	}

	orphanExec := false
	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}
		covered := false
		for _, prog := range f.Progs {
			if prog.Type == elf.PT_LOAD && sec.Addr >= prog.Vaddr && sec.Addr+sec.Size <= prog.Vaddr+prog.Memsz {
				covered = true
				break
			}
		}
		if !covered {
			orphanExec = true
		}
	}

	entryInAnyLoad := entryPointInAnyLoad(f)

	return model.CategoryResult{
		Name:        "protection-mechanisms",
		Description: "NX, RELRO/BIND_NOW, stack canary, PIE and W^X hardening",
		Checks: []model.CheckResult{
			check("nx-stack", nx, "PT_GNU_STACK is present without the executable flag"),
			check("relro-and-bind-now", relro && bindNow, "PT_GNU_RELRO is present and DT_BIND_NOW/DF_BIND_NOW is set"),
			check("stack-canary-symbols", canary, "__stack_chk_fail or __stack_chk_guard is present"),
			check("position-independent-executable", pie, "the object is ET_DYN with DF_1_PIE set"),
			check("no-writable-executable-segments", noWX, "no PT_LOAD segment is both writable and executable"),
			check("no-orphan-executable-sections", !orphanExec, "every SHF_EXECINSTR section is covered by a PT_LOAD segment"),
			check("entry-point-outside-loadable-segment", entryInAnyLoad, "the entry point falls inside some PT_LOAD segment, executable or not"),
		},
	}
}

func dependenciesAndEnvironment(obj *elfio.Object) model.CategoryResult {
	f := obj.File

	interp, hasInterp := interpreterPath(f)
	interpOK := !hasInterp || interpreterWhitelist[interp]

	needed := obj.NeededLibraries()
	band := neededBand(len(needed))

	rpathSafe, rpaths := rpathSafety(f)

	return model.CategoryResult{
		Name:        "dependencies-and-environment",
		Description: "dynamic loader, symbol-stripping, and dependency surface",
		Checks: []model.CheckResult{
			checkWithMeta("standard-interpreter", interpOK, "the PT_INTERP path is a recognized dynamic loader",
				map[string]string{"interpreter": interp}),
			check("symbol-table-present", !obj.IsStripped(), "the object retains its static symbol table"),
			checkWithMeta("rpath-runpath-safety", rpathSafe, "no RPATH/RUNPATH entry uses an unsafe $ORIGIN-relative or non-standard absolute path",
				map[string][]string{"entries": rpaths}),
			checkWithMeta("dt-needed-band", true, "classification of the DT_NEEDED dependency count",
				map[string]interface{}{"count": len(needed), "band": band}),
		},
	}
}

func entryPointInExecutableLoad(f *elf.File) bool {
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Flags&elf.PF_X == 0 {
			continue
		}
		if f.Entry >= prog.Vaddr && f.Entry < prog.Vaddr+prog.Memsz {
			return true
		}
	}
	return false
}

// entryPointInAnyLoad is the protection-mechanisms sibling of
// entryPointInExecutableLoad: it flags entry points that land outside
// every loadable segment, not just non-executable ones.
func entryPointInAnyLoad(f *elf.File) bool {
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if f.Entry >= prog.Vaddr && f.Entry < prog.Vaddr+prog.Memsz {
			return true
		}
	}
	return false
}

func rangesOverlap(startA, sizeA, startB, sizeB uint64) bool {
	endA, endB := startA+sizeA, startB+sizeB
	return startA < endB && startB < endA
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

func hasUPXMarker(f *elf.File) bool {
	for _, sec := range f.Sections {
		switch sec.Name {
		case "UPX0", "UPX1", "UPX!":
			return true
		}
	}
	return false
}

func hasImplausiblySmallText(obj *elfio.Object, fileSize int64) bool {
	text, err := obj.TextSection()
	if err != nil {
		return false
	}
	return fileSize > 1<<20 && text.Size < 64
}

func hasSymbol(obj *elfio.Object, name string) bool {
	for _, sym := range obj.Symbols() {
		if sym.Name == name {
			return true
		}
	}
	for _, sym := range obj.DynamicSymbols() {
		if sym.Name == name {
			return true
		}
	}
	return false
}

func dynFlagSet(f *elf.File, tag elf.DynTag) bool {
	vals, err := f.DynValue(tag)
	return err == nil && len(vals) > 0
}

func dynFlag1Set(f *elf.File, bit elf.DynFlag1) bool {
	vals, err := f.DynValue(elf.DT_FLAGS_1)
	if err != nil {
		return false
	}
	for _, v := range vals {
		if elf.DynFlag1(v)&bit != 0 {
			return true
		}
	}
	return false
}

func dynFlagBitSet(f *elf.File, tag elf.DynTag, bit uint64) bool {
	vals, err := f.DynValue(tag)
	if err != nil {
		return false
	}
	for _, v := range vals {
		if v&bit != 0 {
			return true
		}
	}
	return false
}

func interpreterPath(f *elf.File) (string, bool) {
	sec := f.Section(".interp")
	if sec == nil {
		return "", false
	}
	data, err := sec.Data()
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(data), "\x00"), true
}

func rpathSafety(f *elf.File) (bool, []string) {
	var entries []string
	if v, err := f.DynString(elf.DT_RPATH); err == nil {
		entries = append(entries, v...)
	}
	if v, err := f.DynString(elf.DT_RUNPATH); err == nil {
		entries = append(entries, v...)
	}

	safe := true
	for _, raw := range entries {
		for _, entry := range strings.Split(raw, ":") {
			if !isSafeLibPathEntry(entry) {
				safe = false
			}
		}
	}
	return safe, entries
}

func isSafeLibPathEntry(entry string) bool {
	if strings.Contains(entry, "$ORIGIN") {
		rest := strings.TrimPrefix(strings.TrimPrefix(entry, "$ORIGIN"), "${ORIGIN}")
		return rest == "" || strings.HasPrefix(rest, "/")
	}
	if strings.HasPrefix(entry, "/") {
		for _, dir := range allowedLibDirs {
			if entry == dir || strings.HasPrefix(entry, dir+"/") {
				return true
			}
		}
		return false
	}
	return true
}

func neededBand(count int) string {
	switch {
	case count == 0:
		return "none"
	case count <= 5:
		return "light"
	case count <= 20:
		return "moderate"
	default:
		return "heavy"
	}
}
