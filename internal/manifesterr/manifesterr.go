// Package manifesterr implements the analyzer's error taxonomy: a single
// error type carrying a Kind, a short human description, and a wrapped
// cause chain, so callers can branch on the kind (errors.As) while still
// printing the full chain for diagnostics.
package manifesterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failure, mirroring the specification's error
// taxonomy. Kinds are not Go types: every failure is a *Error with one
// of these Kind values, so errors.As(&manifesterr.Error{}) is the only
// type assertion callers ever need.
type Kind int

const (
	// KindIO covers failures reading the binary or writing outputs.
	KindIO Kind = iota
	// KindBadMagic means the first four bytes are not \x7fELF.
	KindBadMagic
	// KindMalformed covers any other structural ELF violation.
	KindMalformed
	// KindUnsupportedArch means e_machine is not EM_X86_64.
	KindUnsupportedArch
	// KindMissingDebugInfo means the symbol or string table is absent.
	KindMissingDebugInfo
	// KindTextSectionNotFound means the ELF has no PROGBITS ".text" section.
	KindTextSectionNotFound
	// KindDecodeError means the disassembler refused a byte slice.
	KindDecodeError
	// KindDemangleError means a producer-specific demangler rejected a name.
	KindDemangleError
	// KindFunctionNotFound means a name lookup failed during entry
	// discovery or tree materialization.
	KindFunctionNotFound
	// KindSerializationError means JSON encoding/decoding failed.
	KindSerializationError
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindBadMagic:
		return "bad-magic"
	case KindMalformed:
		return "malformed"
	case KindUnsupportedArch:
		return "unsupported-architecture"
	case KindMissingDebugInfo:
		return "missing-debug-info"
	case KindTextSectionNotFound:
		return "text-section-not-found"
	case KindDecodeError:
		return "decode-error"
	case KindDemangleError:
		return "demangle-error"
	case KindFunctionNotFound:
		return "function-not-found"
	case KindSerializationError:
		return "serialization-error"
	default:
		return "unknown"
	}
}

// Error is the analyzer's single error type. Message is a short,
// human-readable description; cause (if any) is the wrapped underlying
// error, preserved for %+v and errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that wraps cause, preserving its chain via
// github.com/pkg/errors.WithMessage so %+v prints the full cause chain.
// WithMessage adds no stack trace of its own; %+v shows one only if
// the cause already carries it.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, cause: errors.WithMessage(cause, message)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As traverse the chain.
func (e *Error) Unwrap() error {
	return e.cause
}

// Format implements fmt.Formatter so %+v on an *Error prints the full
// cause chain (including any stack trace pkg/errors attached).
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s: %s", e.Kind, e.Message)
			if e.cause != nil {
				fmt.Fprintf(s, "\n%+v", e.cause)
			}
			return
		}
		fmt.Fprint(s, e.Error())
	default:
		fmt.Fprint(s, e.Error())
	}
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, manifesterr.New(KindBadMagic, "")) works for sentinel-
// style comparisons regardless of Message/cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// FunctionNotFound builds the KindFunctionNotFound error for the given
// missing function name.
func FunctionNotFound(name string) *Error {
	return New(KindFunctionNotFound, fmt.Sprintf("function %q not found", name))
}

// FunctionAddressNotFound builds the KindFunctionNotFound error for a
// resolved address that names no known function - distinct from
// FunctionNotFound so the address isn't re-wrapped as a "name".
func FunctionAddressNotFound(addr uint64) *Error {
	return New(KindFunctionNotFound, fmt.Sprintf("function at address 0x%x not found", addr))
}
