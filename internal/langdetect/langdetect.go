// Package langdetect supplements the call-graph pipeline with a small,
// always-on producer-language guess, grounded on the original Rust
// analyzer's commented-out code_language DWARF pass: it walks
// .debug_info's compile units via debug/dwarf (the stdlib sibling of
// debug/elf, already opened for the Object Reader) and takes the
// majority vote of each unit's DW_AT_language attribute.
package langdetect

import "debug/dwarf"

// Unknown is returned when no DWARF is present, or no compile unit
// carries a recognized DW_AT_language value. A binary detected as
// Unknown is still fully analyzable - only a missing *symbol* table
// triggers KindMissingDebugInfo.
const Unknown = "Unknown"

// Detect opens d's compile units and returns the majority-vote producer
// tag, suitable as the producerTag argument to internal/demangle.Demangle.
func Detect(d *dwarf.Data) string {
	if d == nil {
		return Unknown
	}

	votes := make(map[string]int)
	reader := d.Reader()
	for {
		entry, err := reader.Next()
		if err != nil || entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		if tag, ok := producerTag(entry); ok {
			votes[tag]++
		}
	}

	return majority(votes)
}

func producerTag(entry *dwarf.Entry) (string, bool) {
	field := entry.AttrField(dwarf.AttrLanguage)
	if field == nil {
		return "", false
	}
	lang, ok := field.Val.(int64)
	if !ok {
		return "", false
	}

	switch lang {
	case 0x1c: // DW_LANG_Rust
		return "Rust", true
	case 0x04, 0x19, 0x1a, 0x21, 0x2a: // DW_LANG_C_plus_plus and its revisions
		return "C_plus_plus_14", true
	case 0x01, 0x02, 0x0c: // DW_LANG_C89, DW_LANG_C, DW_LANG_C99
		return "C99", true
	default:
		return "", false
	}
}

func majority(votes map[string]int) string {
	best, bestCount := Unknown, 0
	for tag, count := range votes {
		if count > bestCount {
			best, bestCount = tag, count
		}
	}
	return best
}
