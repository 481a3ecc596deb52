package disasm

import (
	"go.uber.org/zap"

	"fas2sym/internal/fas"
)

// Span is the part of the output file produced by one assembly dump row.
type Span struct {
	Row        int
	Start, End uint32
}

// Spans returns the output byte range of every row that placed bytes in the
// output. A row ends where the next in-output row begins, the last one at
// EndOfAssembly. Ranges are clipped to size.
func Spans(f *fas.File, size int) []Span {
	var spans []Span
	for i, row := range f.Rows {
		if !row.InOutput() {
			continue
		}
		end := f.EndOfAssembly
		for _, next := range f.Rows[i+1:] {
			if next.InOutput() {
				end = next.OutputOffset
				break
			}
		}
		if uint64(end) > uint64(size) {
			end = uint32(size)
		}
		if row.OutputOffset >= end {
			continue
		}
		spans = append(spans, Span{Row: i, Start: row.OutputOffset, End: end})
	}
	return spans
}

// Rows decodes the bytes each row of f emitted into out, the contents of
// the output file. For x86 the code width of each row selects the mode.
func Rows(f *fas.File, out []byte, opts Options) []Inst {
	log := fas.Logger()
	maxSteps := opts.effectiveMax()

	var result []Inst
	for _, sp := range Spans(f, len(out)) {
		row := f.Rows[sp.Row]
		o := opts
		o.MaxSteps = maxSteps - len(result)
		if o.Arch == "" || o.Arch == ArchX86 {
			o.Mode = int(row.CodeBits)
		}
		insts := Disassemble(out[sp.Start:sp.End], row.Address, o)
		for j := range insts {
			insts[j].Row = sp.Row
			insts[j].Offset += sp.Start
		}
		if line, ok := f.LineAt(row.LineOffset); ok && len(insts) > 0 {
			insts[0].Source = line.Text
		}
		result = append(result, insts...)
		if len(result) >= maxSteps {
			log.Debug("disassembly step limit reached", zap.Int("max_steps", maxSteps), zap.Int("row", sp.Row))
			break
		}
	}
	return result
}
