package fas

import "fmt"

// ReferenceSize is the size of one symbol references record.
const ReferenceSize = 8

// Reference records one use of a symbol.
type Reference struct {
	SymbolOffset uint32 `json:"symbol_offset"` // offset in symbols table
	RowOffset    uint32 `json:"row_offset"`    // offset in assembly dump
}

// readSectionNames reads the section names table. It exists only for object
// outputs (ELF, COFF); index i names section i of the object file.
func (d *decoder) readSectionNames() error {
	sec := d.hdr.SectionNames
	if err := d.expect("section names", sec); err != nil {
		return err
	}
	n := int(sec.Length / 4)
	names := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		off, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("section name %d", i), err)
		}
		names = append(names, off)
	}
	d.f.SectionNames = names
	return nil
}

func (d *decoder) readReferences() error {
	sec := d.hdr.References
	if err := d.expect("symbol references", sec); err != nil {
		return err
	}
	n := int(sec.Length / ReferenceSize)
	refs := make([]Reference, 0, n)
	for i := 0; i < n; i++ {
		sym, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("reference %d", i), err)
		}
		row, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("reference %d", i), err)
		}
		refs = append(refs, Reference{SymbolOffset: sym, RowOffset: row})
	}
	d.f.References = refs
	return nil
}
