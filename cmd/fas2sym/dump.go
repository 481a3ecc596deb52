package main

import (
	"flag"
	"fmt"
	"os"

	"fas2sym/internal/output"
)

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	common := addCommonFlags(fs)
	outDir := fs.String("out", "", "output directory")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return fmt.Errorf("--out is required")
	}

	f, err := common.open()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	if err := output.WriteModelJSON(*outDir, f); err != nil {
		return err
	}
	syms := output.Symbols(f)
	if err := output.WriteSymbolsJSON(*outDir, syms); err != nil {
		return err
	}
	if err := output.WriteListing(*outDir, f); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote model.json, symbols.json (%d) and listing.txt (%d rows) to %s\n",
		len(syms), len(f.Rows), *outDir)
	return nil
}
