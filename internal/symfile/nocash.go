package symfile

import (
	"bufio"
	"fmt"
	"io"

	"fas2sym/internal/fas"
)

// nocashARM marks following code as 32-bit ARM.
// See https://problemkaputt.de/gbatek-symbolic-debug-info.htm
const nocashARM = ".arm"

// NoCashWriter writes no$gba .sym files: one "AAAAAAAA name" line per label.
// An org into a code region emits a ".arm" directive at that address.
type NoCashWriter struct {
	Regions RegionMap
}

func (w *NoCashWriter) Format() Format    { return FormatNoCash }
func (w *NoCashWriter) Extension() string { return ".sym" }

func (w *NoCashWriter) Write(out io.Writer, f *fas.File) error {
	bw := bufio.NewWriter(out)
	for _, e := range Collect(f, w.Regions) {
		switch e.Kind {
		case EntryOrg:
			if e.Region.Code {
				fmt.Fprintf(bw, "%08X %s\n", e.Address, nocashARM)
			}
		case EntryLabel:
			fmt.Fprintf(bw, "%08X %s\n", e.Address, e.Name)
		}
	}
	return bw.Flush()
}
