package fas

import "fmt"

// SymbolSize is the size of one symbols table record.
const SymbolSize = 32

// Symbol is one record of the symbols table.
// Layout:
//
//	+0:  value                uint64
//	+8:  flags                uint16
//	+10: data size            uint8   (0 = plain label)
//	+11: value type           uint8
//	+12: extended SIB         uint32
//	+16: pass defined         uint16
//	+18: pass used            uint16
//	+20: relative to          uint32  (high bit: external symbol)
//	+24: name                 uint32  (high bit: strings table)
//	+28: defining line        uint32  (offset in preprocessed source)
type Symbol struct {
	Value       uint64      `json:"value"`
	Flags       SymbolFlags `json:"flags"`
	DataSize    uint8       `json:"data_size"`
	Type        ValueType   `json:"type"`
	SIB         ExtendedSIB `json:"sib"`
	PassDefined uint16      `json:"pass_defined"`
	PassUsed    uint16      `json:"pass_used"`
	Relative    RelativeTo  `json:"relative"`
	Name        SymbolName  `json:"name"`
	LineOffset  uint32      `json:"line_offset"`
}

// Defined reports whether the symbol was defined.
func (s Symbol) Defined() bool { return s.Flags.Has(FlagDefined) }

// Negative reports whether the value is a two's complement negative number.
func (s Symbol) Negative() bool { return s.Flags.Has(FlagNegative) }

func (d *decoder) readSymbols() error {
	sec := d.hdr.Symbols
	if err := d.expect("symbols table", sec); err != nil {
		return err
	}
	n := int(sec.Length / SymbolSize)
	syms := make([]Symbol, 0, n)
	for i := 0; i < n; i++ {
		sym, err := d.readSymbol()
		if err != nil {
			return truncated(fmt.Sprintf("symbol %d", i), err)
		}
		syms = append(syms, sym)
	}
	d.f.Symbols = syms
	return nil
}

func (d *decoder) readSymbol() (Symbol, error) {
	var sym Symbol
	var err error
	if sym.Value, err = d.s.ReadUint64(); err != nil {
		return sym, err
	}
	flags, err := d.s.ReadUint16()
	if err != nil {
		return sym, err
	}
	sym.Flags = SymbolFlags(flags)
	if sym.DataSize, err = d.s.ReadUint8(); err != nil {
		return sym, err
	}
	typ, err := d.s.ReadUint8()
	if err != nil {
		return sym, err
	}
	sym.Type = ValueType(typ)
	sib, err := d.s.ReadUint32()
	if err != nil {
		return sym, err
	}
	sym.SIB = decodeSIB(sib)
	if sym.PassDefined, err = d.s.ReadUint16(); err != nil {
		return sym, err
	}
	if sym.PassUsed, err = d.s.ReadUint16(); err != nil {
		return sym, err
	}
	rel, err := d.s.ReadUint32()
	if err != nil {
		return sym, err
	}
	sym.Relative = decodeRelative(rel)
	name, err := d.s.ReadUint32()
	if err != nil {
		return sym, err
	}
	sym.Name = decodeName(name)
	if sym.LineOffset, err = d.s.ReadUint32(); err != nil {
		return sym, err
	}
	return sym, nil
}
