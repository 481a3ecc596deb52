package fas

import (
	"fmt"
	"strings"
)

// SymbolFlags is the flag word of a symbol record.
type SymbolFlags uint16

const (
	FlagDefined            SymbolFlags = 1 << iota // symbol was defined
	FlagVariable                                   // assembly-time variable
	FlagNoForwardRef                               // cannot be forward-referenced
	FlagUsed                                       // symbol was used
	FlagUsePredicted                               // prediction needed for "used" check
	FlagUsePredictedResult                         // result of last predicted "used" check
	FlagDefPredicted                               // prediction needed for "defined" check
	FlagDefPredictedResult                         // result of last predicted "defined" check
	FlagOptimized                                  // optimization adjustment applied to value
	FlagNegative                                   // value is a negative two's complement number
	FlagMarker                                     // special marker without value
)

var flagNames = []string{
	"defined", "variable", "no_forward_ref", "used",
	"use_predicted", "use_predicted_result",
	"def_predicted", "def_predicted_result",
	"optimized", "negative", "marker",
}

// Has reports whether all bits of f2 are set.
func (f SymbolFlags) Has(f2 SymbolFlags) bool { return f&f2 == f2 }

func (f SymbolFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := f &^ (1<<len(flagNames) - 1); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

func (f SymbolFlags) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// ValueType classifies a symbol or $ address value.
// Anything other than ValueAbsolute is relocatable.
type ValueType uint8

const (
	ValueAbsolute        ValueType = 0
	ValueSegment         ValueType = 1 // relocatable segment address (MZ only)
	ValueReloc32         ValueType = 2
	ValueRelocRelative32 ValueType = 3
	ValueReloc64         ValueType = 4
	ValueGOTRelative32   ValueType = 5 // ELF only
	ValuePLT32           ValueType = 6 // ELF only
	ValuePLTRelative32   ValueType = 7 // ELF only
)

func (t ValueType) String() string {
	switch t {
	case ValueAbsolute:
		return "absolute"
	case ValueSegment:
		return "segment"
	case ValueReloc32:
		return "reloc32"
	case ValueRelocRelative32:
		return "reloc_rel32"
	case ValueReloc64:
		return "reloc64"
	case ValueGOTRelative32:
		return "got_rel32"
	case ValuePLT32:
		return "plt32"
	case ValuePLTRelative32:
		return "plt_rel32"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func (t ValueType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Relocatable reports whether the value is not absolute.
func (t ValueType) Relocatable() bool { return t != ValueAbsolute }

// Register is an extended SIB register code.
type Register uint8

var registerNames = map[Register]string{
	0x23: "bx", 0x25: "bp", 0x26: "si", 0x27: "di",
	0x40: "eax", 0x41: "ecx", 0x42: "edx", 0x43: "ebx",
	0x44: "esp", 0x45: "ebp", 0x46: "esi", 0x47: "edi",
	0x48: "r8d", 0x49: "r9d", 0x4a: "r10d", 0x4b: "r11d",
	0x4c: "r12d", 0x4d: "r13d", 0x4e: "r14d", 0x4f: "r15d",
	0x80: "rax", 0x81: "rcx", 0x82: "rdx", 0x83: "rbx",
	0x84: "rsp", 0x85: "rbp", 0x86: "rsi", 0x87: "rdi",
	0x88: "r8", 0x89: "r9", 0x8a: "r10", 0x8b: "r11",
	0x8c: "r12", 0x8d: "r13", 0x8e: "r14", 0x8f: "r15",
	0x94: "eip", 0x98: "rip",
}

func (r Register) String() string {
	if r == 0 {
		return ""
	}
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reg_%02x", uint8(r))
}

// ExtendedSIB holds up to two register terms of an address expression.
// Layout on disk: two register code bytes followed by two scale bytes.
type ExtendedSIB struct {
	Registers [2]Register `json:"registers"`
	Scales    [2]uint8    `json:"scales"`
}

func decodeSIB(raw uint32) ExtendedSIB {
	return ExtendedSIB{
		Registers: [2]Register{Register(raw), Register(raw >> 8)},
		Scales:    [2]uint8{uint8(raw >> 16), uint8(raw >> 24)},
	}
}

// IsZero reports whether no register term is present.
func (s ExtendedSIB) IsZero() bool { return s.Registers[0] == 0 && s.Registers[1] == 0 }

// String renders the terms as "reg*scale+reg*scale".
func (s ExtendedSIB) String() string {
	var parts []string
	for i, r := range s.Registers {
		if r == 0 {
			continue
		}
		if s.Scales[i] > 1 {
			parts = append(parts, fmt.Sprintf("%s*%d", r, s.Scales[i]))
		} else {
			parts = append(parts, r.String())
		}
	}
	return strings.Join(parts, "+")
}

const highBit = 0x80000000

// RelativeKind discriminates what a relocatable value is relative to.
type RelativeKind uint8

const (
	RelativeNone     RelativeKind = iota // absolute or field unused
	RelativeSection                      // Value is a 1-based section index
	RelativeExternal                     // Value is a string table offset of the external name
)

func (k RelativeKind) String() string {
	switch k {
	case RelativeSection:
		return "section"
	case RelativeExternal:
		return "external"
	default:
		return "none"
	}
}

func (k RelativeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// RelativeTo is the decoded section-or-external-symbol field.
type RelativeTo struct {
	Kind  RelativeKind `json:"kind"`
	Value uint32       `json:"value,omitempty"`
}

func decodeRelative(raw uint32) RelativeTo {
	switch {
	case raw&highBit != 0:
		return RelativeTo{Kind: RelativeExternal, Value: raw &^ highBit}
	case raw != 0:
		return RelativeTo{Kind: RelativeSection, Value: raw}
	default:
		return RelativeTo{}
	}
}

// Section returns the section index if the value is section-relative.
func (r RelativeTo) Section() (uint32, bool) {
	return r.Value, r.Kind == RelativeSection
}

// External returns the string table offset of the external symbol name.
func (r RelativeTo) External() (uint32, bool) {
	return r.Value, r.Kind == RelativeExternal
}

// NameKind discriminates where a symbol name is stored.
type NameKind uint8

const (
	NameAnonymous NameKind = iota
	NameInSource           // pascal string in the preprocessed source
	NameInStrings          // zero-terminated string in the string table
)

func (k NameKind) String() string {
	switch k {
	case NameInSource:
		return "source"
	case NameInStrings:
		return "strings"
	default:
		return "anonymous"
	}
}

func (k NameKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// SymbolName is the decoded symbol-name field.
type SymbolName struct {
	Kind   NameKind `json:"kind"`
	Offset uint32   `json:"offset,omitempty"`
}

func decodeName(raw uint32) SymbolName {
	switch {
	case raw&highBit != 0:
		return SymbolName{Kind: NameInStrings, Offset: raw &^ highBit}
	case raw != 0:
		return SymbolName{Kind: NameInSource, Offset: raw}
	default:
		return SymbolName{}
	}
}

// RowStatus is the status byte of an assembly dump row.
type RowStatus uint8

const (
	StatusVirtual  RowStatus = 1 << 0 // inside a virtual block; output offset is meaningless
	StatusExcluded RowStatus = 1 << 1 // assembled but not included in the output
)
