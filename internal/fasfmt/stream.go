// FAS data stream reader.
// All multi-byte values in a FAS file are little-endian and byte-packed.
package fasfmt

import (
	"encoding/binary"
	"errors"
)

var ErrStreamEOF = errors.New("stream: unexpected end of data")

// Stream is a forward-only cursor over FAS file data.
type Stream struct {
	data []byte
	pos  int
	end  int
}

// NewStream creates a stream over the given data.
func NewStream(data []byte) *Stream {
	return &Stream{data: data, pos: 0, end: len(data)}
}

// Position returns the current read position.
func (s *Stream) Position() int { return s.pos }

// Len returns the total length of the underlying data.
func (s *Stream) Len() int { return s.end }

// Remaining returns bytes left to read.
func (s *Stream) Remaining() int { return s.end - s.pos }

// Tail returns the unread bytes without copying or advancing.
func (s *Stream) Tail() []byte { return s.data[s.pos:s.end] }

// ReadByte reads a single byte.
func (s *Stream) ReadByte() (byte, error) {
	if s.pos >= s.end {
		return 0, ErrStreamEOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 || s.pos+n > s.end {
		return nil, ErrStreamEOF
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// ReadUint8 reads a uint8.
func (s *Stream) ReadUint8() (uint8, error) {
	return s.ReadByte()
}

// ReadUint16 reads a little-endian uint16.
func (s *Stream) ReadUint16() (uint16, error) {
	if s.pos+2 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint16(s.data[s.pos:])
	s.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (s *Stream) ReadUint32() (uint32, error) {
	if s.pos+4 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (s *Stream) ReadUint64() (uint64, error) {
	if s.pos+8 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint64(s.data[s.pos:])
	s.pos += 8
	return v, nil
}

// Skip advances the position by n bytes.
func (s *Stream) Skip(n int) error {
	if n < 0 || s.pos+n > s.end {
		return ErrStreamEOF
	}
	s.pos += n
	return nil
}

// CString returns the null-terminated string starting at off in data.
// A string running to the end of data without a terminator is returned whole.
func CString(data []byte, off int) string {
	if off < 0 || off >= len(data) {
		return ""
	}
	for i := off; i < len(data); i++ {
		if data[i] == 0 {
			return string(data[off:i])
		}
	}
	return string(data[off:])
}

// PascalString returns the length-prefixed string starting at off in data.
// ok is false if the length byte or the string body lies outside data.
func PascalString(data []byte, off int) (s string, ok bool) {
	if off < 0 || off >= len(data) {
		return "", false
	}
	n := int(data[off])
	if off+1+n > len(data) {
		return "", false
	}
	return string(data[off+1 : off+1+n]), true
}
