// Package syscallclass is the Syscall Classifier (C9): a tiny abstract
// interpreter that recovers syscall numbers from the already-rendered
// AT&T disassembly text of a function, rather than its raw bytes - a
// deliberate, pragmatic restriction carried over unchanged from the
// original analyzer, which only ever needs the handful of patterns
// below to resolve the overwhelming majority of real syscall sites.
package syscallclass

import (
	"regexp"
	"strconv"
)

var (
	movImmRe  = regexp.MustCompile(`mov\s+\$([a-fA-F0-9x]+),\s*%(\w+)`)
	movRegRe  = regexp.MustCompile(`mov\s+%(\w+),\s*%(\w+)`)
	xorSelfRe = regexp.MustCompile(`xor\s+%(\w+),\s*%(\w+)`)
	syscallRe = regexp.MustCompile(`\bsyscall\b`)
)

// Classify walks disassembly line by line, top to bottom, maintaining a
// virtual register file, and returns the sequence of syscall numbers it
// can attribute to a `syscall` instruction via the value last moved
// into %eax (a move into %rax is not tracked as the syscall number).
// Lines are matched in priority order: a direct
// immediate move, a register-to-register move (only followed when the
// source is already tracked), a self-xor zeroing idiom, then a syscall
// site consuming whatever value is currently tracked for the
// accumulator register.
func Classify(disassembly string) []uint64 {
	regs := make(map[string]uint64)
	var found []uint64

	for _, line := range splitLines(disassembly) {
		switch {
		case movImmRe.MatchString(line):
			m := movImmRe.FindStringSubmatch(line)
			if v, ok := parseImmediate(m[1]); ok {
				regs[m[2]] = v
			}
		case movRegRe.MatchString(line):
			m := movRegRe.FindStringSubmatch(line)
			if v, ok := regs[m[1]]; ok {
				regs[m[2]] = v
			}
		case xorSelfRe.MatchString(line):
			m := xorSelfRe.FindStringSubmatch(line)
			if m[1] == m[2] {
				regs[m[1]] = 0
			}
		case syscallRe.MatchString(line):
			if v, ok := accumulator(regs); ok {
				found = append(found, v)
			}
		}
	}

	return found
}

// accumulator looks up the syscall-number convention register, %eax -
// the only accumulator the original analyzer's detect_syscalls reads.
func accumulator(regs map[string]uint64) (uint64, bool) {
	v, ok := regs["eax"]
	return v, ok
}

func parseImmediate(raw string) (uint64, bool) {
	if len(raw) > 2 && (raw[:2] == "0x" || raw[:2] == "0X") {
		v, err := strconv.ParseUint(raw[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	return v, err == nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
