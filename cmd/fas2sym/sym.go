package main

import (
	"flag"
	"fmt"
	"os"

	"fas2sym/internal/symfile"
)

func cmdSym(args []string) error {
	fs := flag.NewFlagSet("sym", flag.ExitOnError)
	common := addCommonFlags(fs)
	format := fs.String("format", "", "output format: nocash or mesen")
	regionsPath := fs.String("regions", "", "YAML memory region map (default: GBA)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format == "" {
		return fmt.Errorf("--format is required (nocash, mesen)")
	}
	ft, err := symfile.ParseFormat(*format)
	if err != nil {
		return err
	}

	regions := symfile.DefaultRegions()
	if *regionsPath != "" {
		if regions, err = symfile.LoadRegions(*regionsPath); err != nil {
			return err
		}
	}
	w, err := symfile.New(ft, regions)
	if err != nil {
		return err
	}

	f, err := common.open()
	if err != nil {
		return err
	}
	path, err := symfile.Generate(f, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
