// Package fasfmt provides the stream reader, options and diagnostics shared
// by the FAS decoder and its consumers.
package fasfmt

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagMissingInput DiagKind = "missing_input"
	DiagDirectory    DiagKind = "directory"
	DiagFormat       DiagKind = "format"
	DiagVersion      DiagKind = "version"
	DiagOffset       DiagKind = "offset_mismatch"
	DiagTruncated    DiagKind = "truncated"
	DiagTrailing     DiagKind = "trailing_data"
)

// Diag records an issue encountered while decoding.
type Diag struct {
	Offset uint64   `json:"offset"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] 0x%x: %s", d.Kind, d.Offset, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(offset uint64, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: msg})
}

func (d *Diags) Items() []Diag { return d.items }

// Options controls decoding behavior across packages.
type Options struct {
	MaxSteps int // cap on variable-length record loops; 0 = use default
}

// DefaultMaxSteps is the global default loop cap.
const DefaultMaxSteps = 10_000_000

func (o Options) EffectiveMaxSteps() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return DefaultMaxSteps
}
