// Package fas decodes the symbolic information files (.fas) written by flat
// assembler. Documentation of the format: https://fossies.org/linux/fasm/tools/fas.txt
//
// A File is produced by one sequential pass over the input. Every table
// is checked to begin at the offset its header entry declares, and the pass
// must end exactly at end of file. Entities reference each other by offset,
// never by pointer; the File methods resolve those offsets.
package fas

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"fas2sym/internal/fasfmt"
)

// File is a decoded FAS file. It is either valid (no diagnostics) or carries
// the diagnostics explaining why it is not; callers check Valid before use.
type File struct {
	Path string `json:"path"`
	Dir  string `json:"-"` // absolute directory of Path
	Base string `json:"-"` // file name of Path without extension

	Header        Header        `json:"header"`
	InputName     string        `json:"input_name"`
	OutputName    string        `json:"output_name"`
	Strings       StringTable   `json:"strings"`
	Symbols       []Symbol      `json:"symbols"`
	Source        []byte        `json:"-"` // raw preprocessed source
	Lines         []Line        `json:"lines"`
	Rows          []Row         `json:"rows"`
	EndOfAssembly uint32        `json:"end_of_assembly"`
	SectionNames  []uint32      `json:"section_names"`
	References    []Reference   `json:"references"`
	Diags         []fasfmt.Diag `json:"diagnostics,omitempty"`

	diags       fasfmt.Diags
	lineIndex   map[uint32]int
	originIndex map[uint32][]int
}

type decoder struct {
	s    *fasfmt.Stream
	opts fasfmt.Options
	hdr  Header
	f    *File
}

// Open reads and decodes the FAS file at path. The returned File is never
// nil; the error is non-nil exactly when the File is not valid.
func Open(path string, opts fasfmt.Options) (*File, error) {
	f := &File{Path: path}
	if path == "" {
		return f.fail(0, fmt.Errorf("%w: no path given", ErrMissingInput))
	}
	info, err := os.Stat(path)
	if err != nil {
		return f.fail(0, fmt.Errorf("%w: %v", ErrMissingInput, err))
	}
	if info.IsDir() {
		return f.fail(0, fmt.Errorf("%w: %s is a directory", ErrMissingInput, path))
	}

	// Abs fails only when the working directory cannot be read.
	abs, err := filepath.Abs(path)
	if err != nil {
		return f.fail(0, fmt.Errorf("%w: %v", ErrDirectory, err))
	}
	f.Dir = filepath.Dir(abs)
	name := filepath.Base(abs)
	f.Base = strings.TrimSuffix(name, filepath.Ext(name))

	data, err := readFile(path)
	if err != nil {
		return f.fail(0, fmt.Errorf("%w: %v", ErrMissingInput, err))
	}
	return decode(f, data, opts)
}

// Decode decodes an in-memory FAS image.
func Decode(data []byte, opts fasfmt.Options) (*File, error) {
	return decode(&File{}, data, opts)
}

func readFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return io.ReadAll(fh)
}

func decode(f *File, data []byte, opts fasfmt.Options) (*File, error) {
	d := &decoder{s: fasfmt.NewStream(data), opts: opts, f: f}
	log := Logger().With(zap.String("path", f.Path))

	steps := []struct {
		name string
		read func() error
	}{
		{"header", d.readHeader},
		{"strings", d.readStrings},
		{"symbols", d.readSymbols},
		{"source", d.readSource},
		{"dump", d.readDump},
		{"section_names", d.readSectionNames},
		{"references", d.readReferences},
	}
	for _, step := range steps {
		start := d.s.Position()
		if err := step.read(); err != nil {
			log.Debug("decode failed",
				zap.String("section", step.name), zap.Int("offset", start), zap.Error(err))
			return f.fail(uint64(d.s.Position()), err)
		}
		log.Debug("section decoded",
			zap.String("section", step.name), zap.Int("offset", start), zap.Int("end", d.s.Position()))
	}

	f.Header = d.hdr
	f.buildIndex()

	if d.s.Position() != d.s.Len() {
		err := fmt.Errorf("%w: read position 0x%x, file length 0x%x",
			ErrTrailingData, d.s.Position(), d.s.Len())
		f.diags.Add(uint64(d.s.Position()), diagKind(err), err.Error())
		f.Diags = f.diags.Items()
		log.Debug("trailing data", zap.Int("position", d.s.Position()), zap.Int("length", d.s.Len()))
		return f, err
	}

	log.Debug("decoded",
		zap.Int("symbols", len(f.Symbols)), zap.Int("lines", len(f.Lines)),
		zap.Int("rows", len(f.Rows)), zap.Int("references", len(f.References)))
	return f, nil
}

// fail records err and drops every decoded table.
func (f *File) fail(offset uint64, err error) (*File, error) {
	f.diags.Add(offset, diagKind(err), err.Error())
	*f = File{Path: f.Path, Dir: f.Dir, Base: f.Base, Diags: f.diags.Items(), diags: f.diags}
	return f, err
}

func (f *File) buildIndex() {
	f.lineIndex = make(map[uint32]int, len(f.Lines))
	f.originIndex = make(map[uint32][]int)
	for i, l := range f.Lines {
		f.lineIndex[l.Offset] = i
		f.originIndex[l.Origin] = append(f.originIndex[l.Origin], i)
	}
}

// Valid reports whether the file decoded without diagnostics.
func (f *File) Valid() bool { return len(f.Diags) == 0 }

// String returns the strings table entry at off.
func (f *File) String(off uint32) string { return f.Strings.Lookup(off) }

// LineAt returns the preprocessed line whose record starts at off.
func (f *File) LineAt(off uint32) (Line, bool) {
	i, ok := f.lineIndex[off]
	if !ok {
		return Line{}, false
	}
	return f.Lines[i], true
}

// LinesFrom returns the lines whose origin field equals origin, in order.
// Origin 0 selects the lines loaded from the main input file.
func (f *File) LinesFrom(origin uint32) []Line {
	idx := f.originIndex[origin]
	out := make([]Line, 0, len(idx))
	for _, i := range idx {
		out = append(out, f.Lines[i])
	}
	return out
}

// SymbolAt returns the symbol whose record starts at off in the symbols table.
func (f *File) SymbolAt(off uint32) (Symbol, bool) {
	if off%SymbolSize != 0 || int(off/SymbolSize) >= len(f.Symbols) {
		return Symbol{}, false
	}
	return f.Symbols[off/SymbolSize], true
}

// RowAt returns the assembly dump row that starts at off.
func (f *File) RowAt(off uint32) (Row, bool) {
	if off%RowSize != 0 || int(off/RowSize) >= len(f.Rows) {
		return Row{}, false
	}
	return f.Rows[off/RowSize], true
}

// SectionName returns the name of the section with the given 1-based index,
// as used by section-relative values.
func (f *File) SectionName(index uint32) string {
	if index == 0 || int(index) > len(f.SectionNames) {
		return ""
	}
	return f.String(f.SectionNames[index-1])
}

// SymbolName resolves the name of s. Anonymous symbols have an empty name.
func (f *File) SymbolName(s Symbol) string {
	switch s.Name.Kind {
	case NameInStrings:
		return f.String(s.Name.Offset)
	case NameInSource:
		name, _ := fasfmt.PascalString(f.Source, int(s.Name.Offset))
		return name
	default:
		return ""
	}
}

// LineOrigin names where l came from: the main input file, an included file
// or the macro that generated it.
func (f *File) LineOrigin(l Line) string {
	switch {
	case l.Origin == 0:
		return f.InputName
	case l.Macro:
		name, _ := fasfmt.PascalString(f.Source, int(l.Origin))
		return name
	default:
		return fasfmt.CString(f.Source, int(l.Origin))
	}
}

// RelativeName names the section or external symbol r refers to.
func (f *File) RelativeName(r RelativeTo) string {
	switch r.Kind {
	case RelativeSection:
		return f.SectionName(r.Value)
	case RelativeExternal:
		return f.String(r.Value)
	default:
		return ""
	}
}
