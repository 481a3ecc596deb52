package fas

import (
	"encoding/binary"
	"fmt"
	"strings"

	"fas2sym/internal/fasfmt"
)

// LineHeaderSize is the fixed part of a preprocessed line record.
const LineHeaderSize = 16

// Token bytes of the preprocessed line encoding.
const (
	tokenEnd    = 0x00
	tokenSymbol = 0x1a // byte length + chars
	tokenQuoted = 0x22 // dword length + chars
	tokenIgnore = 0x3b // like tokenSymbol; the assembler skipped this line
)

const macroBit = highBit

// Line is one record of the preprocessed source.
// Layout:
//
//	+0:  origin         uint32  (0 = main file; else offset of file or macro name)
//	+4:  line number    uint32  (high bit: generated by macro)
//	+8:  position       uint32  (file position, or offset of invoking line)
//	+12: macro line     uint32  (offset of the line inside the macro definition)
//	+16: tokens         ...     (terminated by 0x00)
type Line struct {
	Offset    uint32 `json:"offset"` // record offset inside the preprocessed source
	Origin    uint32 `json:"origin"`
	Number    uint32 `json:"number"`
	Macro     bool   `json:"macro,omitempty"`
	Position  uint32 `json:"position"`
	MacroLine uint32 `json:"macro_line,omitempty"`
	Text      string `json:"text"`
	Ignored   bool   `json:"ignored,omitempty"`
	Size      uint32 `json:"size"` // header plus token bytes
}

// FromMainFile reports whether the line was loaded from the main input file.
func (l Line) FromMainFile() bool { return !l.Macro && l.Origin == 0 }

// DecodeLine reconstructs the text of one tokenized line from data.
// It returns the text, whether the line was ignored by the assembler and the
// number of bytes consumed including the terminating zero.
//
// Symbol tokens are joined by a single space; a literal character between
// them suppresses the space. Quoted tokens are rendered as " 'text'".
func DecodeLine(data []byte) (text string, ignored bool, n int, err error) {
	var sb strings.Builder
	lastWasToken := false
	pos := 0

	for {
		if pos >= len(data) {
			return "", false, pos, fmt.Errorf("%w: unterminated line at +%d", fasfmt.ErrStreamEOF, pos)
		}
		tok := data[pos]
		pos++

		switch tok {
		case tokenEnd:
			return sb.String(), ignored, pos, nil

		case tokenSymbol, tokenIgnore:
			if tok == tokenIgnore {
				ignored = true
			}
			if pos >= len(data) {
				return "", false, pos, fmt.Errorf("%w: token length at +%d", fasfmt.ErrStreamEOF, pos)
			}
			size := int(data[pos])
			pos++
			if pos+size > len(data) {
				return "", false, pos, fmt.Errorf("%w: token of %d bytes at +%d", fasfmt.ErrStreamEOF, size, pos)
			}
			if lastWasToken {
				sb.WriteByte(' ')
			}
			sb.Write(data[pos : pos+size])
			pos += size
			lastWasToken = true

		case tokenQuoted:
			if pos+4 > len(data) {
				return "", false, pos, fmt.Errorf("%w: quoted length at +%d", fasfmt.ErrStreamEOF, pos)
			}
			size := uint64(binary.LittleEndian.Uint32(data[pos:]))
			pos += 4
			if uint64(pos)+size > uint64(len(data)) {
				return "", false, pos, fmt.Errorf("%w: quoted string of %d bytes at +%d", fasfmt.ErrStreamEOF, size, pos)
			}
			sb.WriteString(" '")
			sb.Write(data[pos : pos+int(size)])
			sb.WriteByte('\'')
			pos += int(size)
			lastWasToken = true

		default:
			sb.WriteByte(tok)
			lastWasToken = false
		}
	}
}

func (d *decoder) readSource() error {
	sec := d.hdr.Source
	if err := d.expect("preprocessed source", sec); err != nil {
		return err
	}
	start := d.s.Position()
	raw := d.s.Tail()
	maxSteps := d.opts.EffectiveMaxSteps()

	var lines []Line
	for consumed := uint64(0); consumed < uint64(sec.Length); {
		if len(lines) >= maxSteps {
			return fmt.Errorf("%w: preprocessed source exceeds %d lines", ErrFormat, maxSteps)
		}
		line := Line{Offset: uint32(d.s.Position() - start)}
		origin, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("line at +0x%x", line.Offset), err)
		}
		number, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("line at +0x%x", line.Offset), err)
		}
		position, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("line at +0x%x", line.Offset), err)
		}
		macroLine, err := d.s.ReadUint32()
		if err != nil {
			return truncated(fmt.Sprintf("line at +0x%x", line.Offset), err)
		}

		text, ignored, n, err := DecodeLine(d.s.Tail())
		if err != nil {
			return truncated(fmt.Sprintf("tokens of line at +0x%x", line.Offset), err)
		}
		if err := d.s.Skip(n); err != nil {
			return truncated(fmt.Sprintf("tokens of line at +0x%x", line.Offset), err)
		}

		line.Origin = origin
		line.Number = number &^ macroBit
		line.Macro = number&macroBit != 0
		line.Position = position
		line.MacroLine = macroLine
		line.Text = text
		line.Ignored = ignored
		line.Size = uint32(LineHeaderSize + n)
		lines = append(lines, line)

		consumed += uint64(line.Size)
	}

	d.f.Source = append([]byte(nil), raw[:d.s.Position()-start]...)
	d.f.Lines = lines
	return nil
}
