package disasm

import (
	"strings"
	"testing"

	"fas2sym/internal/fas"
	"fas2sym/internal/fas/fastest"
	"fas2sym/internal/fasfmt"
)

// sampleOutput is the ARM code of fastest.Sample: mov r0, r0 ; b start
var sampleOutput = []byte{0x00, 0x00, 0xa0, 0xe1, 0xfd, 0xff, 0xff, 0xea}

func decodeSample(t *testing.T, b *fastest.Builder) *fas.File {
	t.Helper()
	f, err := fas.Decode(b.Bytes(), fasfmt.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func TestSpans(t *testing.T) {
	f := decodeSample(t, fastest.Sample())
	spans := Spans(f, len(sampleOutput))
	want := []Span{{Row: 2, Start: 0, End: 4}, {Row: 4, Start: 4, End: 8}}
	if len(spans) != len(want) {
		t.Fatalf("got %+v, want %+v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}

	// A short output file clips the last row.
	spans = Spans(f, 6)
	if last := spans[len(spans)-1]; last.End != 6 {
		t.Errorf("clipped end = %d, want 6", last.End)
	}
}

func TestSpansSkipVirtual(t *testing.T) {
	b := fastest.Sample()
	// A virtual row owns no output bytes; the label row before it takes them.
	b.Rows[2].Status = uint8(fas.StatusVirtual)
	f := decodeSample(t, b)
	for _, sp := range Spans(f, len(sampleOutput)) {
		if sp.Row == 2 {
			t.Fatal("virtual row has a span")
		}
	}
}

func TestRows(t *testing.T) {
	f := decodeSample(t, fastest.Sample())
	insts := Rows(f, sampleOutput, Options{Arch: ArchARM})
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	if insts[0].Row != 2 || insts[0].Source != "nop" || insts[0].Addr != 0x8000000 {
		t.Errorf("inst[0] = row %d %q at 0x%x", insts[0].Row, insts[0].Source, insts[0].Addr)
	}
	if insts[1].Row != 4 || insts[1].Source != "b start" || insts[1].Offset != 4 {
		t.Errorf("inst[1] = row %d %q offset %d", insts[1].Row, insts[1].Source, insts[1].Offset)
	}
	if insts[1].Target != 0x8000000 {
		t.Errorf("branch target = 0x%x, want 0x8000000", insts[1].Target)
	}

	if got := Rows(f, sampleOutput, Options{Arch: ArchARM, MaxSteps: 1}); len(got) != 1 {
		t.Errorf("max steps: got %d instructions, want 1", len(got))
	}
}

func TestFileLookup(t *testing.T) {
	f := decodeSample(t, fastest.Sample())
	lookup := FileLookup(f)
	if name, ok := lookup(0x8000000); !ok || name != "start" {
		t.Errorf("0x8000000 = %q, %v", name, ok)
	}
	if name, ok := lookup(0x8000004); !ok || name != "loop" {
		t.Errorf("0x8000004 = %q, %v", name, ok)
	}
	if _, ok := lookup(0x8000008); ok {
		t.Error("unexpected symbol at 0x8000008")
	}
}

func TestAnnotators(t *testing.T) {
	f := decodeSample(t, fastest.Sample())
	insts := Rows(f, sampleOutput, Options{Arch: ArchARM})

	text := Format(insts, nil, RefAnnotator(f))
	if !strings.Contains(text, "; ref start") {
		t.Errorf("missing reference annotation:\n%s", text)
	}

	text = Format(insts, nil, TargetAnnotator(FileLookup(f)))
	if !strings.Contains(text, "; -> start") {
		t.Errorf("missing branch annotation:\n%s", text)
	}
	if !strings.Contains(text, "; b start\n") {
		t.Errorf("missing source line:\n%s", text)
	}
}
