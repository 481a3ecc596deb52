package fas

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fas2sym/internal/fas/fastest"
	"fas2sym/internal/fasfmt"
)

func decodeSample(t *testing.T) *File {
	t.Helper()
	f, err := Decode(fastest.Sample().Bytes(), fasfmt.Options{})
	require.NoError(t, err)
	require.True(t, f.Valid(), "diagnostics: %v", f.Diags)
	return f
}

func TestDecodeSample(t *testing.T) {
	f := decodeSample(t)

	assert.Equal(t, "main.asm", f.InputName)
	assert.Equal(t, "main.bin", f.OutputName)
	assert.Equal(t, uint8(1), f.Header.Major)
	assert.Equal(t, uint8(73), f.Header.Minor)
	assert.Equal(t, uint16(64), f.Header.Length)

	require.Len(t, f.Symbols, 2)
	assert.Equal(t, "start", f.SymbolName(f.Symbols[0]))
	assert.Equal(t, "loop", f.SymbolName(f.Symbols[1]))
	assert.Equal(t, uint64(0x8000000), f.Symbols[0].Value)
	assert.True(t, f.Symbols[0].Defined())
	assert.True(t, f.Symbols[0].Flags.Has(FlagUsed))
	assert.Equal(t, NameInSource, f.Symbols[0].Name.Kind)

	var texts []string
	for _, l := range f.Lines {
		texts = append(texts, l.Text)
		assert.False(t, l.Ignored)
		assert.True(t, l.FromMainFile())
		assert.Equal(t, "main.asm", f.LineOrigin(l))
	}
	assert.Equal(t, []string{"org 0x8000000", "start:", "nop", "loop:", "b start"}, texts)

	require.Len(t, f.Rows, 5)
	assert.Equal(t, uint32(8), f.EndOfAssembly)
	assert.Empty(t, f.SectionNames)

	require.Len(t, f.References, 1)
	ref := f.References[0]
	sym, ok := f.SymbolAt(ref.SymbolOffset)
	require.True(t, ok)
	assert.Equal(t, "start", f.SymbolName(sym))
	row, ok := f.RowAt(ref.RowOffset)
	require.True(t, ok)
	line, ok := f.LineAt(row.LineOffset)
	require.True(t, ok)
	assert.Equal(t, "b start", line.Text)
	assert.Equal(t, uint32(5), line.Number)
}

func TestDecodeSectionsAreContiguous(t *testing.T) {
	data := fastest.Sample().Bytes()
	f, err := Decode(data, fasfmt.Options{})
	require.NoError(t, err)

	h := f.Header
	assert.Equal(t, uint32(HeaderSize), h.Strings.Offset)
	assert.Equal(t, h.Strings.End(), uint64(h.Symbols.Offset))
	assert.Equal(t, h.Symbols.End(), uint64(h.Source.Offset))
	assert.Equal(t, h.Source.End(), uint64(h.Dump.Offset))
	assert.Equal(t, h.Dump.End()+4, uint64(h.SectionNames.Offset))
	assert.Equal(t, h.SectionNames.End(), uint64(h.References.Offset))
	assert.Equal(t, h.References.End(), uint64(len(data)))

	var size uint32
	for _, l := range f.Lines {
		assert.Equal(t, size, l.Offset)
		size += l.Size
	}
	assert.Equal(t, h.Source.Length, size)
	assert.Len(t, f.Source, int(size))
}

func TestDecodeOffsetMismatch(t *testing.T) {
	names := []string{"strings", "symbols", "source", "dump", "section_names", "references"}
	for sec, name := range names {
		for _, delta := range []int32{-1, 1, 7} {
			b := fastest.Sample()
			b.Shift[sec] = delta
			f, err := Decode(b.Bytes(), fasfmt.Options{})
			require.ErrorIs(t, err, ErrOffsetMismatch, "%s%+d", name, delta)

			var oe *OffsetError
			require.True(t, errors.As(err, &oe))
			assert.Equal(t, int64(oe.Actual)+int64(delta), int64(oe.Declared))

			require.NotNil(t, f)
			assert.False(t, f.Valid())
			require.Len(t, f.Diags, 1)
			assert.Equal(t, fasfmt.DiagOffset, f.Diags[0].Kind)
			assert.Nil(t, f.Symbols)
			assert.Nil(t, f.Lines)
			assert.Nil(t, f.Rows)
			assert.Empty(t, f.InputName)
		}
	}
}

func TestDecodeVersionMismatch(t *testing.T) {
	for _, v := range [][2]uint8{{1, 72}, {1, 74}, {2, 73}, {0, 0}} {
		b := fastest.Sample()
		b.Major, b.Minor = v[0], v[1]
		f, err := Decode(b.Bytes(), fasfmt.Options{})
		require.ErrorIs(t, err, ErrVersion)

		var ve *VersionError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, v[0], ve.Major)
		assert.Equal(t, v[1], ve.Minor)
		assert.Equal(t, uint8(MinorVersion), ve.WantMinor)
		assert.Contains(t, err.Error(), "want 1.73")

		require.Len(t, f.Diags, 1)
		assert.Equal(t, fasfmt.DiagVersion, f.Diags[0].Kind)
		assert.Equal(t, uint64(6), f.Diags[0].Offset, "nothing past the version bytes is read")
	}
}

func TestDecodeBadHeader(t *testing.T) {
	t.Run("signature", func(t *testing.T) {
		data := fastest.Sample().Bytes()
		data[3] = 0x1b
		f, err := Decode(data, fasfmt.Options{})
		require.ErrorIs(t, err, ErrFormat)
		assert.Equal(t, fasfmt.DiagFormat, f.Diags[0].Kind)
	})
	t.Run("header length", func(t *testing.T) {
		b := fastest.Sample()
		b.HeaderLength = 60
		_, err := Decode(b.Bytes(), fasfmt.Options{})
		require.ErrorIs(t, err, ErrFormat)
	})
	t.Run("empty", func(t *testing.T) {
		f, err := Decode(nil, fasfmt.Options{})
		require.ErrorIs(t, err, ErrTruncated)
		assert.False(t, f.Valid())
	})
	t.Run("short header", func(t *testing.T) {
		data := fastest.Sample().Bytes()[:40]
		_, err := Decode(data, fasfmt.Options{})
		require.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("empty strings table", func(t *testing.T) {
		b := fastest.New()
		_, err := Decode(b.Bytes(), fasfmt.Options{})
		require.ErrorIs(t, err, ErrFormat)
	})
}

func TestDecodeTrailingData(t *testing.T) {
	b := fastest.Sample()
	b.Trailing = []byte{0xcc}
	f, err := Decode(b.Bytes(), fasfmt.Options{})
	require.ErrorIs(t, err, ErrTrailingData)

	assert.False(t, f.Valid())
	require.Len(t, f.Diags, 1)
	assert.Equal(t, fasfmt.DiagTrailing, f.Diags[0].Kind)
	// Tables read before the check stay available for inspection.
	assert.Len(t, f.Symbols, 2)
	assert.Len(t, f.Lines, 5)
	assert.Equal(t, "main.asm", f.InputName)
}

func TestDecodeTruncated(t *testing.T) {
	data := fastest.Sample().Bytes()
	for _, cut := range []int{1, 3, 8, 20} {
		f, err := Decode(data[:len(data)-cut], fasfmt.Options{})
		require.ErrorIs(t, err, ErrTruncated, "cut %d", cut)
		assert.Equal(t, fasfmt.DiagTruncated, f.Diags[0].Kind)
		assert.Nil(t, f.References)
	}
}

// A section length far beyond the end of the file must fail as truncated
// without sizing any table from it.
func TestDecodeInflatedLength(t *testing.T) {
	fields := map[string]int{
		"strings":       fastest.FieldStrings,
		"symbols":       fastest.FieldSymbols,
		"source":        fastest.FieldSource,
		"dump":          fastest.FieldDump,
		"section names": fastest.FieldSectionNames,
		"references":    fastest.FieldReferences,
	}
	for name, field := range fields {
		data := fastest.Sample().Bytes()
		binary.LittleEndian.PutUint32(data[field+4:], 0x7fffffe0)

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		f, err := Decode(data, fasfmt.Options{})
		runtime.ReadMemStats(&after)

		require.ErrorIs(t, err, ErrTruncated, name)
		assert.False(t, f.Valid(), name)
		assert.Equal(t, fasfmt.DiagTruncated, f.Diags[0].Kind, name)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "%s: allocated %d bytes", name, after.TotalAlloc-before.TotalAlloc)
	}
}

func TestDecodeLineLimit(t *testing.T) {
	_, err := Decode(fastest.Sample().Bytes(), fasfmt.Options{MaxSteps: 3})
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeEmptyStringEntry(t *testing.T) {
	b := fastest.New()
	b.Strings = []byte("\x00abc\x00")
	b.InputName = 1
	b.OutputName = 0
	f, err := Decode(b.Bytes(), fasfmt.Options{})
	require.NoError(t, err)

	assert.Equal(t, []StringEntry{{0, ""}, {1, "abc"}}, f.Strings.Entries)
	assert.Equal(t, "abc", f.InputName)
	assert.Equal(t, "", f.OutputName)
}

func TestDecodeMacroAndIncludedLines(t *testing.T) {
	b := fastest.New()
	b.InputName = b.AddString("main.asm")
	b.OutputName = b.AddString("main.bin")

	def := b.AddLine(mainLine(0, 1, fastest.Tokens(fastest.Tok("macro"), fastest.Tok("pad"))))
	inc := b.AddLine(mainLine(0, 2, fastest.Tokens(fastest.Tok("include"), fastest.Quoted("inc.asm"))))
	// The file name of an included line points into the quoted token above.
	nameOff := inc + 16 + 1 + 1 + 7 + 1 + 4
	b.AddLine(fastest.Line{Origin: nameOff, Number: 1, Tokens: fastest.Tok("nop")})
	b.AddLine(fastest.Line{
		Origin: def + 16 + 1 + 1 + 5 + 1, Number: 1 | 0x80000000, Position: inc, MacroLine: def,
		Tokens: fastest.Tokens(fastest.Ignored("if"), fastest.Tok("0")),
	})

	f, err := Decode(b.Bytes(), fasfmt.Options{})
	require.NoError(t, err)
	require.Len(t, f.Lines, 4)

	assert.Equal(t, `include 'inc.asm'`, f.Lines[1].Text)

	included := f.Lines[2]
	assert.False(t, included.Macro)
	assert.False(t, included.FromMainFile())
	assert.Equal(t, "inc.asm", f.LineOrigin(included))

	macro := f.Lines[3]
	assert.True(t, macro.Macro)
	assert.Equal(t, uint32(1), macro.Number)
	assert.True(t, macro.Ignored)
	assert.Equal(t, "if 0", macro.Text)
	assert.Equal(t, "pad", f.LineOrigin(macro))

	assert.Len(t, f.LinesFrom(0), 2)
	assert.Len(t, f.LinesFrom(nameOff), 1)
}

// mainLine builds a line loaded from the main file.
func mainLine(origin, number uint32, tokens []byte) fastest.Line {
	return fastest.Line{Origin: origin, Number: number, Tokens: tokens}
}

func TestRelativeNames(t *testing.T) {
	b := fastest.Sample()
	text := b.AddString(".text")
	ext := b.AddString("printf")
	b.SectionNames = []uint32{text}
	b.Symbols[0].Relative = 1
	b.Symbols[1].Relative = 0x80000000 | ext

	f, err := Decode(b.Bytes(), fasfmt.Options{})
	require.NoError(t, err)

	assert.Equal(t, ".text", f.SectionName(1))
	assert.Equal(t, "", f.SectionName(0))
	assert.Equal(t, "", f.SectionName(2))
	assert.Equal(t, ".text", f.RelativeName(f.Symbols[0].Relative))
	assert.Equal(t, "printf", f.RelativeName(f.Symbols[1].Relative))
	assert.Equal(t, "", f.RelativeName(RelativeTo{}))
}

func TestLookupOutOfRange(t *testing.T) {
	f := decodeSample(t)
	_, ok := f.SymbolAt(64)
	assert.False(t, ok)
	_, ok = f.SymbolAt(5)
	assert.False(t, ok)
	_, ok = f.RowAt(5 * RowSize)
	assert.False(t, ok)
	_, ok = f.LineAt(1)
	assert.False(t, ok)
	assert.Equal(t, "", f.SymbolName(Symbol{}))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.fas")
	require.NoError(t, os.WriteFile(path, fastest.Sample().Bytes(), 0o644))

	f, err := Open(path, fasfmt.Options{})
	require.NoError(t, err)
	assert.True(t, f.Valid())
	assert.Equal(t, path, f.Path)
	assert.Equal(t, "prog", f.Base)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, f.Dir)
}

func TestOpenMissing(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{"", filepath.Join(dir, "nope.fas"), dir} {
		f, err := Open(path, fasfmt.Options{})
		require.ErrorIs(t, err, ErrMissingInput, "path %q", path)
		require.NotNil(t, f)
		assert.False(t, f.Valid())
		assert.Equal(t, fasfmt.DiagMissingInput, f.Diags[0].Kind)
	}
}

func TestDecodeLogsSections(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	decodeSample(t)
	assert.Equal(t, 7, logs.FilterMessage("section decoded").Len())
	assert.Equal(t, 1, logs.FilterMessage("decoded").Len())
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	defer SetLogger(zap.NewNop())

	require.NotNil(t, Logger())
	decodeSample(t)
}
