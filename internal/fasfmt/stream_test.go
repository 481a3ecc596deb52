package fasfmt

import (
	"testing"
)

func TestReadLittleEndian(t *testing.T) {
	s := NewStream([]byte{
		0x34, 0x12, // uint16
		0x78, 0x56, 0x34, 0x12, // uint32
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // uint64
	})

	u16, err := s.ReadUint16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadUint16 = 0x%x, %v; want 0x1234", u16, err)
	}
	u32, err := s.ReadUint32()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("ReadUint32 = 0x%x, %v; want 0x12345678", u32, err)
	}
	u64, err := s.ReadUint64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("ReadUint64 = 0x%x, %v; want 0x0102030405060708", u64, err)
	}
	if s.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", s.Remaining())
	}
}

func TestReadEOF(t *testing.T) {
	tests := []struct {
		name string
		read func(*Stream) error
	}{
		{"byte", func(s *Stream) error { _, err := s.ReadByte(); return err }},
		{"uint16", func(s *Stream) error { _, err := s.ReadUint16(); return err }},
		{"uint32", func(s *Stream) error { _, err := s.ReadUint32(); return err }},
		{"uint64", func(s *Stream) error { _, err := s.ReadUint64(); return err }},
		{"bytes", func(s *Stream) error { _, err := s.ReadBytes(2); return err }},
		{"negative", func(s *Stream) error { _, err := s.ReadBytes(-1); return err }},
		{"skip", func(s *Stream) error { return s.Skip(2) }},
	}
	for _, tt := range tests {
		s := NewStream([]byte{})
		if tt.name != "byte" {
			s = NewStream([]byte{1})
		}
		if err := tt.read(s); err != ErrStreamEOF {
			t.Errorf("%s: expected ErrStreamEOF, got %v", tt.name, err)
		}
	}
}

func TestReadBytesCopies(t *testing.T) {
	data := []byte{1, 2, 3}
	s := NewStream(data)
	b, err := s.ReadBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	b[0] = 9
	if data[0] != 1 {
		t.Error("ReadBytes aliased the underlying data")
	}
	if s.Position() != 2 {
		t.Errorf("Position = %d, want 2", s.Position())
	}
}

func TestTailDoesNotAdvance(t *testing.T) {
	s := NewStream([]byte{1, 2, 3, 4})
	if _, err := s.ReadByte(); err != nil {
		t.Fatal(err)
	}
	tail := s.Tail()
	if len(tail) != 3 || tail[0] != 2 {
		t.Fatalf("Tail = %v", tail)
	}
	if s.Position() != 1 {
		t.Errorf("Position = %d, want 1", s.Position())
	}
	if err := s.Skip(3); err != nil {
		t.Fatal(err)
	}
	if len(s.Tail()) != 0 {
		t.Errorf("Tail after skip = %v", s.Tail())
	}
}

func TestCString(t *testing.T) {
	data := []byte("main.asm\x00out.bin\x00tail")
	tests := []struct {
		off  int
		want string
	}{
		{0, "main.asm"},
		{5, "asm"},
		{9, "out.bin"},
		{8, ""},
		{17, "tail"},
		{100, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := CString(data, tt.off); got != tt.want {
			t.Errorf("CString(%d) = %q, want %q", tt.off, got, tt.want)
		}
	}
}

func TestPascalString(t *testing.T) {
	data := []byte{0, 4, 'm', 'a', 'i', 'n', 9}
	if s, ok := PascalString(data, 1); !ok || s != "main" {
		t.Errorf("PascalString(1) = %q, %v", s, ok)
	}
	if s, ok := PascalString(data, 0); !ok || s != "" {
		t.Errorf("PascalString(0) = %q, %v", s, ok)
	}
	if _, ok := PascalString(data, 6); ok {
		t.Error("PascalString(6) should overrun")
	}
}
