package symfile

import (
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"fas2sym/internal/fas"
)

var (
	orgRe   = regexp.MustCompile(`^org\s+0x([0-9a-fA-F]+)\b`)
	labelRe = regexp.MustCompile(`^([A-Za-z_.?@$][A-Za-z0-9_.?@$#]*):`)
)

// EntryKind tells labels from region switches.
type EntryKind int

const (
	EntryLabel EntryKind = iota
	EntryOrg
)

// Entry is one item collected from the assembly dump, in dump order.
type Entry struct {
	Kind    EntryKind
	Address uint64
	Name    string // label name; empty for EntryOrg
	Region  Region // region current at this row
	Line    uint32 // record offset of the preprocessed line
}

// Collect walks the assembly dump, joins each row to its preprocessed line
// and returns the labels and org directives found there. Rows whose line is
// missing or was skipped by the assembler are ignored. An empty region map
// means DefaultRegions.
func Collect(f *fas.File, regions RegionMap) []Entry {
	log := fas.Logger()
	if len(regions.Regions) == 0 {
		regions = DefaultRegions()
	}
	region := regions.Regions[0]

	var out []Entry
	for i, row := range f.Rows {
		line, ok := f.LineAt(row.LineOffset)
		if !ok {
			log.Debug("row without source line",
				zap.Int("row", i), zap.Uint32("line_offset", row.LineOffset))
			continue
		}
		if line.Ignored {
			continue
		}

		if base, ok := parseOrg(line.Text); ok {
			if r, known := regions.At(base); known {
				region = r
			}
			out = append(out, Entry{Kind: EntryOrg, Address: row.Address, Region: region, Line: line.Offset})
			continue
		}

		if row.Address == 0 {
			continue
		}
		if name, ok := parseLabel(line.Text); ok {
			out = append(out, Entry{Kind: EntryLabel, Address: row.Address, Name: name, Region: region, Line: line.Offset})
		}
	}
	return out
}

func parseOrg(text string) (uint64, bool) {
	m := orgRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseLabel(text string) (string, bool) {
	m := labelRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
