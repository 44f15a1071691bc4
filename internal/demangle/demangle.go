// Package demangle maps a raw ELF symbol name to a human-readable
// identifier using the demangling scheme implied by the binary's
// producer language.
//
// Grounded on github.com/ianlancetaylor/demangle, the library
// google/pprof vendors for the same job (see the retrieved
// rhysh/go-perf symbolizer, which calls demangle.Filter on every
// resolved function name) - it covers the Itanium C++ ABI and both of
// Rust's mangling schemes (legacy and v0) from a single dependency.
package demangle

import (
	"strings"

	gd "github.com/ianlancetaylor/demangle"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

// Demangle maps rawName to its demangled form according to producerTag.
// Rust and rust apply the Rust demangler; C_plus_plus_14 and C++ apply
// the Itanium demangler only when rawName starts with "_Z"; every other
// tag (including unknown ones) returns rawName unchanged. A demangler
// that recognizes but cannot parse a name returns KindDemangleError
// rather than silently passing the mangled name through.
func Demangle(rawName, producerTag string) (string, error) {
	switch producerTag {
	case "Rust", "rust":
		return demangleRust(rawName)
	case "C_plus_plus_14", "C++":
		return demangleCPP(rawName)
	default:
		return rawName, nil
	}
}

func demangleRust(raw string) (string, error) {
	out := gd.Filter(raw)
	if out == raw && looksMangled(raw) {
		return "", manifesterr.New(manifesterr.KindDemangleError,
			"failed to demangle Rust symbol "+raw)
	}
	return out, nil
}

func demangleCPP(raw string) (string, error) {
	if !strings.HasPrefix(raw, "_Z") {
		return raw, nil
	}
	out, err := gd.ToString(raw)
	if err != nil {
		return "", manifesterr.Wrap(manifesterr.KindDemangleError, err,
			"failed to demangle C++ symbol "+raw)
	}
	return out, nil
}

// looksMangled recognizes the two Rust mangling prefixes (v0's "_R" and
// legacy's "_ZN...17h<hash>E") so an unchanged Filter result on a name
// that was clearly meant to be mangled is treated as a demangler
// failure rather than a silent pass-through.
func looksMangled(raw string) bool {
	return strings.HasPrefix(raw, "_R") || strings.HasPrefix(raw, "_ZN")
}
