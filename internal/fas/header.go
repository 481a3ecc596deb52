package fas

import (
	"bytes"
	"fmt"

	"fas2sym/internal/fasfmt"
)

// Supported FAS format version.
const (
	MajorVersion = 1
	MinorVersion = 73
)

// HeaderSize is the only header length this decoder accepts.
const HeaderSize = 64

// magic is the signature 1A736166h stored little-endian.
var magic = [4]byte{'f', 'a', 's', 0x1a}

// Section locates one table inside the file.
type Section struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

// End returns the offset just past the section.
func (s Section) End() uint64 { return uint64(s.Offset) + uint64(s.Length) }

// Header holds the fixed-size FAS header.
// Layout:
//
//	+0x00: signature        [4]byte  "fas\x1a"
//	+0x04: major version    uint8
//	+0x05: minor version    uint8
//	+0x06: header length    uint16
//	+0x08: input name       uint32   (offset in strings table)
//	+0x0c: output name      uint32   (offset in strings table)
//	+0x10: strings          offset, length
//	+0x18: symbols          offset, length
//	+0x20: preprocessed     offset, length
//	+0x28: assembly dump    offset, length
//	+0x30: section names    offset, length
//	+0x38: symbol refs      offset, length
type Header struct {
	Major        uint8   `json:"major"`
	Minor        uint8   `json:"minor"`
	Length       uint16  `json:"length"`
	InputName    uint32  `json:"input_name"`
	OutputName   uint32  `json:"output_name"`
	Strings      Section `json:"strings"`
	Symbols      Section `json:"symbols"`
	Source       Section `json:"source"`
	Dump         Section `json:"dump"`
	SectionNames Section `json:"section_names"`
	References   Section `json:"references"`
}

// readHeader validates the signature, version and header length, then
// reads the name offsets and section table.
func (d *decoder) readHeader() error {
	sig, err := d.s.ReadBytes(len(magic))
	if err != nil {
		return truncated("signature", err)
	}
	if !bytes.Equal(sig, magic[:]) {
		return fmt.Errorf("%w: bad signature %x (want %x)", ErrFormat, sig, magic)
	}

	h := &d.hdr
	if h.Major, err = d.s.ReadUint8(); err != nil {
		return truncated("major version", err)
	}
	if h.Minor, err = d.s.ReadUint8(); err != nil {
		return truncated("minor version", err)
	}
	if h.Major != MajorVersion || h.Minor != MinorVersion {
		return &VersionError{
			Major: h.Major, Minor: h.Minor,
			WantMajor: MajorVersion, WantMinor: MinorVersion,
		}
	}

	if h.Length, err = d.s.ReadUint16(); err != nil {
		return truncated("header length", err)
	}
	if h.Length != HeaderSize {
		return fmt.Errorf("%w: header length %d (want %d)", ErrFormat, h.Length, HeaderSize)
	}

	fields := []*uint32{
		&h.InputName, &h.OutputName,
		&h.Strings.Offset, &h.Strings.Length,
		&h.Symbols.Offset, &h.Symbols.Length,
		&h.Source.Offset, &h.Source.Length,
		&h.Dump.Offset, &h.Dump.Length,
		&h.SectionNames.Offset, &h.SectionNames.Length,
		&h.References.Offset, &h.References.Length,
	}
	for i, p := range fields {
		if *p, err = d.s.ReadUint32(); err != nil {
			return truncated(fmt.Sprintf("header field %d", i), err)
		}
	}
	return nil
}

// expect checks that the cursor sits at a section's declared offset and
// that the declared length fits in the remaining data. Readers size their
// tables from the length, so it is checked before anything is allocated.
func (d *decoder) expect(name string, sec Section) error {
	if uint64(d.s.Position()) != uint64(sec.Offset) {
		return &OffsetError{Section: name, Declared: sec.Offset, Actual: d.s.Position()}
	}
	if uint64(sec.Length) > uint64(d.s.Remaining()) {
		return truncated(fmt.Sprintf("%s length 0x%x, 0x%x bytes left", name, sec.Length, d.s.Remaining()),
			fasfmt.ErrStreamEOF)
	}
	return nil
}
