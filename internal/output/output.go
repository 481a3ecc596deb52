// Package output writes fas2sym results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fas2sym/internal/disasm"
	"fas2sym/internal/fas"
)

// WriteModelJSON writes the decoded file to model.json.
func WriteModelJSON(dir string, f *fas.File) error {
	return writeJSON(filepath.Join(dir, "model.json"), f)
}

// SymbolEntry is one symbol with its offsets resolved.
type SymbolEntry struct {
	Name     string          `json:"name"`
	Value    uint64          `json:"value"`
	Flags    fas.SymbolFlags `json:"flags"`
	Type     fas.ValueType   `json:"type"`
	Size     uint8           `json:"size,omitempty"`
	Relative string          `json:"relative_to,omitempty"`
	Line     string          `json:"line,omitempty"` // defining source line
	Origin   string          `json:"origin,omitempty"`
	Number   uint32          `json:"line_number,omitempty"`
}

// Symbols resolves the symbols table of f. Anonymous symbols are skipped.
func Symbols(f *fas.File) []SymbolEntry {
	out := make([]SymbolEntry, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		name := f.SymbolName(s)
		if name == "" {
			continue
		}
		e := SymbolEntry{
			Name:     name,
			Value:    s.Value,
			Flags:    s.Flags,
			Type:     s.Type,
			Size:     s.DataSize,
			Relative: f.RelativeName(s.Relative),
		}
		if s.Defined() {
			if l, ok := f.LineAt(s.LineOffset); ok {
				e.Line = l.Text
				e.Origin = f.LineOrigin(l)
				e.Number = l.Number
			}
		}
		out = append(out, e)
	}
	return out
}

// WriteSymbolsJSON writes symbols to symbols.json.
func WriteSymbolsJSON(dir string, symbols []SymbolEntry) error {
	return writeJSON(filepath.Join(dir, "symbols.json"), symbols)
}

// WriteListing writes listing.txt: every assembly dump row with its output
// offset, address and reconstructed source line.
func WriteListing(dir string, f *fas.File) error {
	path := filepath.Join(dir, "listing.txt")
	return os.WriteFile(path, []byte(Listing(f)), 0644)
}

// Listing renders the assembly dump joined with the preprocessed source.
// Virtual rows show "virtual" in place of the output offset.
func Listing(f *fas.File) string {
	var b strings.Builder
	for _, row := range f.Rows {
		off := fmt.Sprintf("%08x", row.OutputOffset)
		switch {
		case row.Virtual():
			off = "virtual "
		case row.Excluded():
			off = "excluded"
		}
		text := "?"
		if l, ok := f.LineAt(row.LineOffset); ok {
			text = l.Text
			if l.Ignored {
				text = "; " + text
			}
		}
		fmt.Fprintf(&b, "%s  %016x  %2d  %s\n", off, row.Address, row.CodeBits, text)
	}
	fmt.Fprintf(&b, "%08x  end\n", f.EndOfAssembly)
	return b.String()
}

// WriteASM writes disassembled instructions to asm.txt.
func WriteASM(dir string, insts []disasm.Inst, lookup disasm.SymbolLookup, annotators ...disasm.Annotator) error {
	path := filepath.Join(dir, "asm.txt")
	text := disasm.Format(insts, lookup, annotators...)
	return os.WriteFile(path, []byte(text), 0644)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
