package main

import (
	"flag"
	"fmt"
	"os"

	"fas2sym/internal/disasm"
	"fas2sym/internal/xref"
)

func cmdXref(args []string) error {
	fs := flag.NewFlagSet("xref", flag.ExitOnError)
	common := addCommonFlags(fs)
	outPath := fs.String("out", "", "DOT output file")
	branches := fs.Bool("branches", false, "add branch edges decoded from the output file")
	binPath := fs.String("bin", "", "assembled output file, with --branches")
	archName := fs.String("arch", "x86", "instruction set, with --branches")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return fmt.Errorf("--out is required")
	}

	f, err := common.open()
	if err != nil {
		return err
	}

	var insts []disasm.Inst
	if *branches {
		arch, err := disasm.ParseArch(*archName)
		if err != nil {
			return err
		}
		if insts, err = disassemble(f, *binPath, disasm.Options{Arch: arch, MaxSteps: *common.maxSteps}); err != nil {
			return err
		}
	}

	g := xref.Build(f, insts)
	dot := xref.DOT(g, f.InputName)
	if err := os.WriteFile(*outPath, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write dot: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Graph: %d nodes, %d edges -> %s\n", len(g.Nodes), len(g.Edges), *outPath)
	return nil
}
