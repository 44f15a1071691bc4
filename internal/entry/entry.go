// Package entry is the Entry Finder (C10): it locates the user-written
// main function by pattern-matching the disassembly of whichever
// launcher/startup function is available, rather than trusting any
// single symbol name (stripped or heavily-optimized binaries routinely
// lack a symbol literally named "main").
package entry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
)

// launcherNames is the ordered fallback chain of functions whose
// disassembly is searched for the rdi-loading idiom that points at
// user main. main itself is tried first.
var launcherNames = []string{"main", "_start", "__start", "start", "__dls2"}

var (
	movImmHexRe   = regexp.MustCompile(`mov[a-z]?\s+\$0x([0-9a-fA-F]+),\s*%rdi`)
	movImmLooseRe = regexp.MustCompile(`mov[a-z]?\s+\$(?:0x)?([0-9a-fA-F]+),\s*%rdi`)
	leaPosRe      = regexp.MustCompile(`^(0x[0-9a-fA-F]+):\s+lea\s+0x([0-9a-fA-F]+)\(%rip\),\s*%rdi`)
	leaNegRe      = regexp.MustCompile(`^(0x[0-9a-fA-F]+):\s+lea\s+-0x([0-9a-fA-F]+)\(%rip\),\s*%rdi`)
)

// leaInstructionLen is the byte length of the 7-byte
// "lea <disp32>(%rip),%rdi" encoding, needed to recover the
// RIP-relative target address.
const leaInstructionLen = 7

// FindMain locates the user's main function among functions, per C10's
// four-pattern startup-shim scan.
func FindMain(functions map[string]*model.FunctionRecord) (*model.FunctionRecord, error) {
	launcher, err := chooseLauncher(functions)
	if err != nil {
		return nil, err
	}

	mainAddr, err := scanForMainAddress(launcher)
	if err != nil {
		return nil, err
	}

	for _, f := range functions {
		if f.StartAddr == mainAddr {
			return f, nil
		}
	}
	return nil, manifesterr.FunctionAddressNotFound(mainAddr)
}

func chooseLauncher(functions map[string]*model.FunctionRecord) (*model.FunctionRecord, error) {
	for _, name := range launcherNames {
		if f, ok := functions[name]; ok && f.Disassembly != nil {
			return f, nil
		}
	}
	return nil, manifesterr.FunctionNotFound("main")
}

// scanForMainAddress scans f's disassembly line by line, trying the
// four patterns (in priority order) on each line, and stops at the
// first match anywhere in the listing.
func scanForMainAddress(f *model.FunctionRecord) (uint64, error) {
	for _, line := range strings.Split(*f.Disassembly, "\n") {
		if m := movImmHexRe.FindStringSubmatch(line); m != nil {
			if addr, err := strconv.ParseUint(m[1], 16, 64); err == nil {
				return addr, nil
			}
		}
		if m := movImmLooseRe.FindStringSubmatch(line); m != nil {
			if addr, err := strconv.ParseUint(m[1], 16, 64); err == nil {
				return addr, nil
			}
		}
		if m := leaPosRe.FindStringSubmatch(line); m != nil {
			insnAddr, err1 := strconv.ParseUint(strings.TrimPrefix(m[1], "0x"), 16, 64)
			offset, err2 := strconv.ParseUint(m[2], 16, 64)
			if err1 == nil && err2 == nil {
				return insnAddr + leaInstructionLen + offset, nil
			}
		}
		if m := leaNegRe.FindStringSubmatch(line); m != nil {
			insnAddr, err1 := strconv.ParseUint(strings.TrimPrefix(m[1], "0x"), 16, 64)
			offset, err2 := strconv.ParseUint(m[2], 16, 64)
			if err1 == nil && err2 == nil {
				return insnAddr + leaInstructionLen - offset, nil
			}
		}
	}
	return 0, manifesterr.FunctionNotFound("main")
}
