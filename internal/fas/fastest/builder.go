// Package fastest builds well-formed FAS images for tests.
package fastest

import (
	"bytes"
	"encoding/binary"
)

// Header field positions.
const (
	FieldMajor        = 0x04
	FieldMinor        = 0x05
	FieldHeaderLength = 0x06
	FieldInputName    = 0x08
	FieldOutputName   = 0x0c
	FieldStrings      = 0x10
	FieldSymbols      = 0x18
	FieldSource       = 0x20
	FieldDump         = 0x28
	FieldSectionNames = 0x30
	FieldReferences   = 0x38
)

// Section indexes for Builder.Shift.
const (
	SecStrings = iota
	SecSymbols
	SecSource
	SecDump
	SecSectionNames
	SecReferences
	numSections
)

// Symbol is a raw symbols table record.
type Symbol struct {
	Value       uint64
	Flags       uint16
	DataSize    uint8
	Type        uint8
	SIB         uint32
	PassDefined uint16
	PassUsed    uint16
	Relative    uint32
	Name        uint32
	Line        uint32
}

// Line is a raw preprocessed line. Tokens are written followed by 0x00.
type Line struct {
	Origin    uint32
	Number    uint32
	Position  uint32
	MacroLine uint32
	Tokens    []byte
}

// Row is a raw assembly dump row.
type Row struct {
	OutputOffset uint32
	LineOffset   uint32
	Address      uint64
	SIB          uint32
	Relative     uint32
	Type         uint8
	CodeBits     uint8
	Status       uint8
	AddressHigh  uint8
}

// Ref is a raw symbol reference.
type Ref struct {
	Symbol uint32
	Row    uint32
}

// Builder assembles a FAS image section by section.
type Builder struct {
	Major, Minor  uint8
	HeaderLength  uint16
	InputName     uint32
	OutputName    uint32
	Strings       []byte
	Symbols       []Symbol
	Lines         []Line
	Rows          []Row
	EndOfAssembly uint32
	SectionNames  []uint32
	Refs          []Ref
	Trailing      []byte

	// Shift is added to the declared offset of each section without moving
	// the section itself.
	Shift [numSections]int32

	sourceLen uint32
}

// New returns a builder for a 1.73 file with a 64-byte header.
func New() *Builder {
	return &Builder{Major: 1, Minor: 73, HeaderLength: 64}
}

// AddString appends s to the strings table and returns its offset.
func (b *Builder) AddString(s string) uint32 {
	off := uint32(len(b.Strings))
	b.Strings = append(b.Strings, s...)
	b.Strings = append(b.Strings, 0)
	return off
}

// AddLine appends a preprocessed line and returns its record offset.
func (b *Builder) AddLine(l Line) uint32 {
	off := b.sourceLen
	b.Lines = append(b.Lines, l)
	b.sourceLen += uint32(16 + len(l.Tokens) + 1)
	return off
}

// AddSymbol appends a symbol and returns its offset in the symbols table.
func (b *Builder) AddSymbol(s Symbol) uint32 {
	b.Symbols = append(b.Symbols, s)
	return uint32(len(b.Symbols)-1) * 32
}

// AddRow appends an assembly dump row and returns its offset.
func (b *Builder) AddRow(r Row) uint32 {
	b.Rows = append(b.Rows, r)
	return uint32(len(b.Rows)-1) * 28
}

// Tok encodes a symbol token.
func Tok(s string) []byte { return append([]byte{0x1a, byte(len(s))}, s...) }

// Ignored encodes a token marking the line as skipped by the assembler.
func Ignored(s string) []byte { return append([]byte{0x3b, byte(len(s))}, s...) }

// Quoted encodes a quoted string token.
func Quoted(s string) []byte {
	out := []byte{0x22, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(out[1:], uint32(len(s)))
	return append(out, s...)
}

// Tokens concatenates token encodings and literal characters.
func Tokens(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

// Label encodes "name:" as written by the preprocessor.
func Label(name string) []byte { return Tokens(Tok(name), []byte(":")) }

// Bytes returns the encoded image.
func (b *Builder) Bytes() []byte {
	var strs, syms, src, dump, names, refs bytes.Buffer
	le := binary.LittleEndian

	strs.Write(b.Strings)
	for _, s := range b.Symbols {
		binary.Write(&syms, le, s.Value)
		binary.Write(&syms, le, s.Flags)
		syms.WriteByte(s.DataSize)
		syms.WriteByte(s.Type)
		binary.Write(&syms, le, s.SIB)
		binary.Write(&syms, le, s.PassDefined)
		binary.Write(&syms, le, s.PassUsed)
		binary.Write(&syms, le, s.Relative)
		binary.Write(&syms, le, s.Name)
		binary.Write(&syms, le, s.Line)
	}
	for _, l := range b.Lines {
		binary.Write(&src, le, [4]uint32{l.Origin, l.Number, l.Position, l.MacroLine})
		src.Write(l.Tokens)
		src.WriteByte(0)
	}
	for _, r := range b.Rows {
		binary.Write(&dump, le, r.OutputOffset)
		binary.Write(&dump, le, r.LineOffset)
		binary.Write(&dump, le, r.Address)
		binary.Write(&dump, le, r.SIB)
		binary.Write(&dump, le, r.Relative)
		dump.Write([]byte{r.Type, r.CodeBits, r.Status, r.AddressHigh})
	}
	dumpLen := dump.Len()
	binary.Write(&dump, le, b.EndOfAssembly)
	for _, n := range b.SectionNames {
		binary.Write(&names, le, n)
	}
	for _, r := range b.Refs {
		binary.Write(&refs, le, [2]uint32{r.Symbol, r.Row})
	}

	type sec struct {
		field  int
		off    uint32
		length uint32
	}
	off := uint32(64)
	layout := make([]sec, 0, numSections)
	for i, part := range []struct {
		field  int
		data   *bytes.Buffer
		length int
	}{
		{FieldStrings, &strs, strs.Len()},
		{FieldSymbols, &syms, syms.Len()},
		{FieldSource, &src, src.Len()},
		{FieldDump, &dump, dumpLen},
		{FieldSectionNames, &names, names.Len()},
		{FieldReferences, &refs, refs.Len()},
	} {
		layout = append(layout, sec{part.field, uint32(int64(off) + int64(b.Shift[i])), uint32(part.length)})
		off += uint32(part.data.Len())
	}

	out := make([]byte, 64, off+uint32(len(b.Trailing)))
	copy(out, "fas\x1a")
	out[FieldMajor] = b.Major
	out[FieldMinor] = b.Minor
	le.PutUint16(out[FieldHeaderLength:], b.HeaderLength)
	le.PutUint32(out[FieldInputName:], b.InputName)
	le.PutUint32(out[FieldOutputName:], b.OutputName)
	for _, s := range layout {
		le.PutUint32(out[s.field:], s.off)
		le.PutUint32(out[s.field+4:], s.length)
	}
	for _, part := range [][]byte{strs.Bytes(), syms.Bytes(), src.Bytes(), dump.Bytes(), names.Bytes(), refs.Bytes(), b.Trailing} {
		out = append(out, part...)
	}
	return out
}

// Sample returns a small but complete image of an ARM program:
//
//	org 0x8000000
//	start:
//	nop
//	loop:
//	b start
//
// with symbols for both labels and one reference to start from the branch.
// The program occupies 8 bytes of output.
func Sample() *Builder {
	b := New()
	b.InputName = b.AddString("main.asm")
	b.OutputName = b.AddString("main.bin")

	org := b.AddLine(Line{Number: 1, Tokens: Tokens(Tok("org"), Tok("0x8000000"))})
	start := b.AddLine(Line{Number: 2, Position: 16, Tokens: Label("start")})
	nop := b.AddLine(Line{Number: 3, Position: 24, Tokens: Tok("nop")})
	loop := b.AddLine(Line{Number: 4, Position: 28, Tokens: Label("loop")})
	jump := b.AddLine(Line{Number: 5, Position: 34, Tokens: Tokens(Tok("b"), Tok("start"))})

	startSym := b.AddSymbol(Symbol{
		Value: 0x8000000, Flags: 0x0009, PassDefined: 2, PassUsed: 2,
		Name: start + 16 + 1, Line: start,
	})
	b.AddSymbol(Symbol{
		Value: 0x8000004, Flags: 0x0001, PassDefined: 2,
		Name: loop + 16 + 1, Line: loop,
	})

	b.AddRow(Row{OutputOffset: 0, LineOffset: org, Address: 0x8000000, CodeBits: 32})
	b.AddRow(Row{OutputOffset: 0, LineOffset: start, Address: 0x8000000, CodeBits: 32})
	b.AddRow(Row{OutputOffset: 0, LineOffset: nop, Address: 0x8000000, CodeBits: 32})
	b.AddRow(Row{OutputOffset: 4, LineOffset: loop, Address: 0x8000004, CodeBits: 32})
	jumpRow := b.AddRow(Row{OutputOffset: 4, LineOffset: jump, Address: 0x8000004, CodeBits: 32})
	b.EndOfAssembly = 8

	b.Refs = append(b.Refs, Ref{Symbol: startSym, Row: jumpRow})
	return b
}
