package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"fas2sym/internal/fas"
)

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	common := addCommonFlags(fs)
	jsonOut := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := common.open()
	if f == nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(f); encErr != nil {
			return encErr
		}
		return err
	}
	printInfo(os.Stdout, f)
	return err
}

// printInfo writes a text summary. Invalid files print their diagnostics
// and whatever tables survived.
func printInfo(w io.Writer, f *fas.File) {
	h := f.Header
	fmt.Fprintf(w, "File:     %s\n", f.Path)
	if f.Valid() {
		fmt.Fprintf(w, "Version:  %d.%d (header %d bytes)\n", h.Major, h.Minor, h.Length)
	}
	fmt.Fprintf(w, "Input:    %s\n", f.InputName)
	fmt.Fprintf(w, "Output:   %s\n", f.OutputName)

	fmt.Fprintf(w, "Sections:\n")
	for _, s := range []struct {
		name string
		sec  fas.Section
		n    int
	}{
		{"strings", h.Strings, f.Strings.Len()},
		{"symbols", h.Symbols, len(f.Symbols)},
		{"source", h.Source, len(f.Lines)},
		{"dump", h.Dump, len(f.Rows)},
		{"section names", h.SectionNames, len(f.SectionNames)},
		{"references", h.References, len(f.References)},
	} {
		fmt.Fprintf(w, "  %-14s offset=0x%08x length=0x%08x entries=%d\n", s.name, s.sec.Offset, s.sec.Length, s.n)
	}
	fmt.Fprintf(w, "End of assembly: 0x%x\n", f.EndOfAssembly)

	if len(f.Symbols) > 0 {
		fmt.Fprintf(w, "Symbols:\n")
		for _, s := range f.Symbols {
			name := f.SymbolName(s)
			if name == "" {
				name = "<anonymous>"
			}
			rel := ""
			if r := f.RelativeName(s.Relative); r != "" {
				rel = " rel " + r
			}
			fmt.Fprintf(w, "  %016x  %-24s %s%s\n", s.Value, name, s.Flags, rel)
		}
	}

	if !f.Valid() {
		fmt.Fprintf(w, "Diagnostics:\n")
		for _, d := range f.Diags {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}
