package symfile

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"

	"fas2sym/internal/fas"
)

const mesenARM = "_arm"

// MesenWriter writes Mesen label files (.mlb): "Region:ADDR:label" with the
// address relative to the region base.
// See https://www.mesen.ca/docs/debugging/debuggerintegration.html#mesen-label-files-mlb
type MesenWriter struct {
	Regions RegionMap
}

func (w *MesenWriter) Format() Format    { return FormatMesen }
func (w *MesenWriter) Extension() string { return ".mlb" }

func (w *MesenWriter) Write(out io.Writer, f *fas.File) error {
	bw := bufio.NewWriter(out)
	n := 0
	for _, e := range Collect(f, w.Regions) {
		r := e.Region
		switch e.Kind {
		case EntryOrg:
			if !r.Code {
				continue
			}
			addr := e.Address
			if addr < r.Base {
				addr = r.Base
			}
			fmt.Fprintf(bw, "%s:%s:%s\n", r.Name, r.Format(addr), mesenARM)
			n++
		case EntryLabel:
			if e.Address < r.Base {
				fas.Logger().Debug("label below region base",
					zap.String("label", e.Name), zap.Uint64("address", e.Address), zap.String("region", r.Name))
				continue
			}
			fmt.Fprintf(bw, "%s:%s:%s\n", r.Name, r.Format(e.Address), e.Name)
			n++
		}
	}
	if n == 0 {
		return ErrNoSymbols
	}
	return bw.Flush()
}
