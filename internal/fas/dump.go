package fas

import "fmt"

// RowSize is the size of one assembly dump row.
const RowSize = 28

// Row is one row of the assembly dump: the state of the assembler at the
// point where a preprocessed line was assembled.
// Layout:
//
//	+0:  output offset    uint32
//	+4:  line offset      uint32  (offset in preprocessed source)
//	+8:  $ address        uint64
//	+16: extended SIB     uint32
//	+20: relative to      uint32  (high bit: external symbol; 0 = absolute)
//	+24: value type       uint8
//	+25: code width       uint8   (16, 32 or 64)
//	+26: status           uint8   (bit 0 virtual, bit 1 not in output)
//	+27: address high     uint8   (bits 64-71 of $ address)
type Row struct {
	OutputOffset uint32      `json:"output_offset"`
	LineOffset   uint32      `json:"line_offset"`
	Address      uint64      `json:"address"`
	SIB          ExtendedSIB `json:"sib"`
	Relative     RelativeTo  `json:"relative"`
	Type         ValueType   `json:"type"`
	CodeBits     uint8       `json:"code_bits"`
	Status       RowStatus   `json:"status"`
	AddressHigh  uint8       `json:"address_high,omitempty"`
}

// Virtual reports whether the row was assembled inside a virtual block.
func (r Row) Virtual() bool { return r.Status&StatusVirtual != 0 }

// Excluded reports whether the row was assembled at a point not written to
// the output file.
func (r Row) Excluded() bool { return r.Status&StatusExcluded != 0 }

// InOutput reports whether OutputOffset refers to bytes in the output file.
func (r Row) InOutput() bool { return !r.Virtual() && !r.Excluded() }

func (d *decoder) readDump() error {
	sec := d.hdr.Dump
	if err := d.expect("assembly dump", sec); err != nil {
		return err
	}
	n := int(sec.Length / RowSize)
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row, err := d.readRow()
		if err != nil {
			return truncated(fmt.Sprintf("assembly dump row %d", i), err)
		}
		rows = append(rows, row)
	}
	end, err := d.s.ReadUint32()
	if err != nil {
		return truncated("end of assembly offset", err)
	}
	d.f.Rows = rows
	d.f.EndOfAssembly = end
	return nil
}

func (d *decoder) readRow() (Row, error) {
	var row Row
	var err error
	if row.OutputOffset, err = d.s.ReadUint32(); err != nil {
		return row, err
	}
	if row.LineOffset, err = d.s.ReadUint32(); err != nil {
		return row, err
	}
	if row.Address, err = d.s.ReadUint64(); err != nil {
		return row, err
	}
	sib, err := d.s.ReadUint32()
	if err != nil {
		return row, err
	}
	row.SIB = decodeSIB(sib)
	rel, err := d.s.ReadUint32()
	if err != nil {
		return row, err
	}
	row.Relative = decodeRelative(rel)
	tail, err := d.s.ReadBytes(4)
	if err != nil {
		return row, err
	}
	row.Type = ValueType(tail[0])
	row.CodeBits = tail[1]
	row.Status = RowStatus(tail[2])
	row.AddressHigh = tail[3]
	return row, nil
}
