package fas

import (
	"errors"
	"fmt"

	"fas2sym/internal/fasfmt"
)

var (
	ErrMissingInput   = errors.New("fas: input file is missing")
	ErrDirectory      = errors.New("fas: cannot resolve parent directory")
	ErrFormat         = errors.New("fas: malformed file")
	ErrVersion        = errors.New("fas: unsupported version")
	ErrOffsetMismatch = errors.New("fas: section offset mismatch")
	ErrTruncated      = errors.New("fas: truncated file")
	ErrTrailingData   = errors.New("fas: end of file does not match read position")
)

// VersionError reports a FAS version other than the supported one.
type VersionError struct {
	Major, Minor         uint8
	WantMajor, WantMinor uint8
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("fas: unexpected version %d.%d (want %d.%d)",
		e.Major, e.Minor, e.WantMajor, e.WantMinor)
}

func (e *VersionError) Unwrap() error { return ErrVersion }

// OffsetError reports a section whose declared offset differs from the
// read position at which it begins.
type OffsetError struct {
	Section  string
	Declared uint32
	Actual   int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("fas: %s declared at 0x%x but read position is 0x%x",
		e.Section, e.Declared, e.Actual)
}

func (e *OffsetError) Unwrap() error { return ErrOffsetMismatch }

// truncated wraps a stream read failure.
func truncated(what string, err error) error {
	if errors.Is(err, fasfmt.ErrStreamEOF) {
		return fmt.Errorf("%w: %s: %w", ErrTruncated, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// diagKind maps a decode error to its diagnostic class.
func diagKind(err error) fasfmt.DiagKind {
	switch {
	case errors.Is(err, ErrMissingInput):
		return fasfmt.DiagMissingInput
	case errors.Is(err, ErrDirectory):
		return fasfmt.DiagDirectory
	case errors.Is(err, ErrVersion):
		return fasfmt.DiagVersion
	case errors.Is(err, ErrOffsetMismatch):
		return fasfmt.DiagOffset
	case errors.Is(err, ErrTruncated):
		return fasfmt.DiagTruncated
	case errors.Is(err, ErrTrailingData):
		return fasfmt.DiagTrailing
	default:
		return fasfmt.DiagFormat
	}
}
