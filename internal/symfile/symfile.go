// Package symfile writes debugger symbol files from a decoded FAS file.
package symfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"fas2sym/internal/fas"
)

var (
	ErrInvalidInput = errors.New("symfile: FAS file is not valid")
	ErrNoSymbols    = errors.New("symfile: no symbols found")
	ErrFormat       = errors.New("symfile: unknown output format")
	ErrRegions      = errors.New("symfile: bad region map")
)

// Format names an output dialect.
type Format string

const (
	FormatNoCash Format = "nocash"
	FormatMesen  Format = "mesen"
)

// Formats lists the supported dialects.
var Formats = []Format{FormatNoCash, FormatMesen}

// ParseFormat resolves a format name, ignoring case. "nocashgba" and
// "no$gba" are accepted for FormatNoCash.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nocash", "nocashgba", "no$gba":
		return FormatNoCash, nil
	case "mesen":
		return FormatMesen, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// Writer renders a decoded FAS file in one symbol file dialect.
type Writer interface {
	Format() Format
	Extension() string
	Write(w io.Writer, f *fas.File) error
}

// New returns the writer for format using regions as the memory map.
func New(format Format, regions RegionMap) (Writer, error) {
	if err := regions.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatNoCash:
		return &NoCashWriter{Regions: regions}, nil
	case FormatMesen:
		return &MesenWriter{Regions: regions}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrFormat, format)
}

// Generate writes f with w to <f.Dir>/<f.Base><ext>, replacing any existing
// file, and returns the path. Nothing is written when rendering fails.
func Generate(f *fas.File, w Writer) (string, error) {
	if f == nil || !f.Valid() {
		return "", ErrInvalidInput
	}
	path := filepath.Join(f.Dir, f.Base+w.Extension())

	var buf bytes.Buffer
	if err := w.Write(&buf, f); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("symfile: write %s: %w", path, err)
	}
	fas.Logger().Debug("symbol file written",
		zap.String("format", string(w.Format())), zap.String("path", path), zap.Int("bytes", buf.Len()))
	return path, nil
}
