package disasm

import (
	"fmt"
	"sort"
	"strings"

	"fas2sym/internal/fas"
)

// Annotator returns an optional inline comment for an instruction.
// Empty string means no annotation. Receives the full Inst for access
// to both raw encoding and address.
type Annotator func(inst Inst) string

// FileLookup resolves addresses to the names of the defined symbols of f.
// When several symbols share an address the first one in the table wins.
func FileLookup(f *fas.File) SymbolLookup {
	names := make(map[uint64]string)
	for _, s := range f.Symbols {
		if !s.Defined() || s.Flags.Has(fas.FlagMarker) {
			continue
		}
		name := f.SymbolName(s)
		if name == "" {
			continue
		}
		if _, dup := names[s.Value]; !dup {
			names[s.Value] = name
		}
	}
	return MapLookup(names)
}

// TargetAnnotator names the destination of branch instructions.
func TargetAnnotator(lookup SymbolLookup) Annotator {
	return func(inst Inst) string {
		if !inst.HasTarget {
			return ""
		}
		if lookup != nil {
			if name, ok := lookup(inst.Target); ok {
				return "-> " + name
			}
		}
		return fmt.Sprintf("-> 0x%x", inst.Target)
	}
}

// RefAnnotator lists the symbols referenced by the row of an instruction.
// Only the first instruction of a row is annotated.
func RefAnnotator(f *fas.File) Annotator {
	refs := make(map[int][]string)
	for _, r := range f.References {
		if r.RowOffset%fas.RowSize != 0 {
			continue
		}
		sym, ok := f.SymbolAt(r.SymbolOffset)
		if !ok {
			continue
		}
		row := int(r.RowOffset / fas.RowSize)
		refs[row] = append(refs[row], f.SymbolName(sym))
	}
	for row := range refs {
		sort.Strings(refs[row])
	}
	return func(inst Inst) string {
		if inst.Row < 0 || inst.Source == "" {
			return ""
		}
		names, ok := refs[inst.Row]
		if !ok {
			return ""
		}
		return "ref " + strings.Join(names, ", ")
	}
}
