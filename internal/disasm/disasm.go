// Package disasm decodes the machine code emitted by the rows of a FAS
// assembly dump.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// Arch selects the instruction set.
type Arch string

const (
	ArchX86   Arch = "x86"
	ArchARM   Arch = "arm"
	ArchARM64 Arch = "arm64"
)

// ParseArch resolves an architecture name.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "x86", "x64", "amd64", "386":
		return ArchX86, nil
	case "arm", "arm32":
		return ArchARM, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	}
	return "", fmt.Errorf("disasm: unknown architecture %q", s)
}

// Inst is one decoded instruction, or one data unit that did not decode.
type Inst struct {
	Addr      uint64
	Offset    uint32 // position of the first byte in the output file
	Bytes     []byte
	Mnemonic  string
	Operands  string
	Text      string // full disassembly line
	Target    uint64 // branch target when HasTarget
	HasTarget bool
	Row       int    // assembly dump row index; -1 outside Rows
	Source    string // preprocessed line text, on the first instruction of a row
}

// Size returns the encoded length.
func (i Inst) Size() int { return len(i.Bytes) }

// SymbolLookup resolves an address to a symbolic name. Returns ("", false) if unknown.
type SymbolLookup func(addr uint64) (name string, ok bool)

// Options controls disassembly behavior.
type Options struct {
	Arch     Arch         // default ArchX86
	Mode     int          // x86 code width: 16, 32 or 64; default 32
	MaxSteps int          // maximum instructions to decode; 0 = 10M
	Symbols  SymbolLookup // optional symbol resolver
}

const defaultMaxSteps = 10_000_000

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

func (o Options) x86Mode() int {
	switch o.Mode {
	case 16, 32, 64:
		return o.Mode
	}
	return 32
}

// Disassemble decodes data as code loaded at base. Bytes that do not decode
// become .byte or .word entries and decoding resumes after them.
func Disassemble(data []byte, base uint64, opts Options) []Inst {
	maxSteps := opts.effectiveMax()
	var result []Inst
	for off := 0; off < len(data) && len(result) < maxSteps; {
		pc := base + uint64(off)
		var inst Inst
		switch opts.Arch {
		case ArchARM:
			inst = decodeARM(data[off:], pc)
		case ArchARM64:
			inst = decodeARM64(data[off:], pc)
		default:
			inst = decodeX86(data[off:], pc, opts.x86Mode(), opts.Symbols)
		}
		inst.Offset = uint32(off)
		inst.Row = -1
		result = append(result, inst)
		off += inst.Size()
	}
	return result
}

func decodeX86(src []byte, pc uint64, mode int, lookup SymbolLookup) Inst {
	inst, err := x86asm.Decode(src, mode)
	if err != nil || inst.Len == 0 {
		return dataInst(src, pc, 1)
	}
	var symname x86asm.SymLookup
	if lookup != nil {
		symname = func(addr uint64) (string, uint64) {
			if name, ok := lookup(addr); ok {
				return name, addr
			}
			return "", 0
		}
	}
	out := newInst(pc, src[:inst.Len], x86asm.IntelSyntax(inst, pc, symname))
	out.Target, out.HasTarget = x86Target(inst, pc)
	return out
}

func decodeARM(src []byte, pc uint64) Inst {
	inst, err := armasm.Decode(src, armasm.ModeARM)
	if err != nil || inst.Len == 0 {
		return dataInst(src, pc, 4)
	}
	out := newInst(pc, src[:inst.Len], armasm.GNUSyntax(inst))
	out.Target, out.HasTarget = armTarget(inst, pc)
	return out
}

func decodeARM64(src []byte, pc uint64) Inst {
	inst, err := arm64asm.Decode(src)
	if err != nil {
		return dataInst(src, pc, 4)
	}
	out := newInst(pc, src[:4], arm64asm.GNUSyntax(inst))
	out.Target, out.HasTarget = arm64Target(inst, pc)
	return out
}

func newInst(pc uint64, raw []byte, text string) Inst {
	inst := Inst{Addr: pc, Bytes: append([]byte(nil), raw...), Text: text}
	parts := strings.SplitN(text, " ", 2)
	inst.Mnemonic = parts[0]
	if len(parts) > 1 {
		inst.Operands = strings.TrimSpace(parts[1])
	}
	return inst
}

// dataInst emits one data unit of size bytes, or a single byte when fewer
// than size bytes remain.
func dataInst(src []byte, pc uint64, size int) Inst {
	if len(src) < size {
		size = 1
	}
	raw := src[:size]
	if size == 4 {
		return newInst(pc, raw, fmt.Sprintf(".word 0x%08x", binary.LittleEndian.Uint32(raw)))
	}
	return newInst(pc, raw, fmt.Sprintf(".byte 0x%02x", raw[0]))
}

// Format renders a slice of instructions as stable text output.
// Each line: <addr>  <hex bytes>  <disasm>  ; <comments>
// The source line of a row precedes its first instruction.
// Annotators are checked in order; first non-empty result is used.
func Format(insts []Inst, lookup SymbolLookup, annotators ...Annotator) string {
	var b strings.Builder
	for _, inst := range insts {
		if inst.Source != "" {
			fmt.Fprintf(&b, "; %s\n", inst.Source)
		}
		fmt.Fprintf(&b, "0x%08x  ", inst.Addr)
		fmt.Fprintf(&b, "%-24s  ", hexBytes(inst.Bytes))
		b.WriteString(inst.Text)
		commented := false
		if lookup != nil {
			if name, ok := lookup(inst.Addr); ok {
				fmt.Fprintf(&b, "  ; <%s>", name)
				commented = true
			}
		}
		if !commented {
			for _, ann := range annotators {
				if s := ann(inst); s != "" {
					fmt.Fprintf(&b, "  ; %s", s)
					break
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// hexBytes renders up to 8 bytes, marking longer encodings with "..".
func hexBytes(raw []byte) string {
	const limit = 8
	var b strings.Builder
	for i, c := range raw {
		if i == limit {
			b.WriteString(" ..")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// MapLookup returns a SymbolLookup over a fixed address map.
func MapLookup(names map[uint64]string) SymbolLookup {
	return func(addr uint64) (string, bool) {
		if name, ok := names[addr]; ok {
			return name, true
		}
		return "", false
	}
}
