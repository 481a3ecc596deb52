package fas

import (
	"fmt"

	"fas2sym/internal/fasfmt"
)

// StringEntry is one zero-terminated string of the strings table, keyed by
// the byte offset at which it starts.
type StringEntry struct {
	Offset uint32 `json:"offset"`
	Value  string `json:"value"`
}

// StringTable is the strings table of a FAS file. It holds the input and
// output file names and the names of sections and external symbols.
type StringTable struct {
	Raw     []byte        `json:"-"`
	Entries []StringEntry `json:"entries"`

	index map[uint32]int
}

// Lookup returns the string starting at off. Offsets that are not the start
// of a scanned entry are read directly from the raw table.
func (t *StringTable) Lookup(off uint32) string {
	if i, ok := t.index[off]; ok {
		return t.Entries[i].Value
	}
	return fasfmt.CString(t.Raw, int(off))
}

// Len returns the number of scanned entries.
func (t *StringTable) Len() int { return len(t.Entries) }

// scanStrings splits raw into entries. The scan always moves one byte past
// the terminator, so an empty string yields an empty entry and the next
// entry starts at the following byte.
func scanStrings(raw []byte, maxSteps int) ([]StringEntry, error) {
	var entries []StringEntry
	for off := 0; off < len(raw); {
		if len(entries) >= maxSteps {
			return nil, fmt.Errorf("%w: strings table exceeds %d entries", ErrFormat, maxSteps)
		}
		s := fasfmt.CString(raw, off)
		entries = append(entries, StringEntry{Offset: uint32(off), Value: s})
		off += len(s) + 1
	}
	return entries, nil
}

func (d *decoder) readStrings() error {
	sec := d.hdr.Strings
	if err := d.expect("strings table", sec); err != nil {
		return err
	}
	if sec.Length == 0 {
		return fmt.Errorf("%w: empty strings table", ErrFormat)
	}
	raw, err := d.s.ReadBytes(int(sec.Length))
	if err != nil {
		return truncated("strings table", err)
	}
	entries, err := scanStrings(raw, d.opts.EffectiveMaxSteps())
	if err != nil {
		return err
	}

	t := &d.f.Strings
	t.Raw = raw
	t.Entries = entries
	t.index = make(map[uint32]int, len(entries))
	for i, e := range entries {
		t.index[e.Offset] = i
		switch e.Offset {
		case d.hdr.InputName:
			d.f.InputName = e.Value
		case d.hdr.OutputName:
			d.f.OutputName = e.Value
		}
	}
	return nil
}
