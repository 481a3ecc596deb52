package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fas2sym/internal/disasm"
	"fas2sym/internal/fas"
	"fas2sym/internal/output"
)

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	common := addCommonFlags(fs)
	binPath := fs.String("bin", "", "assembled output file (default: output name recorded in the .fas)")
	archName := fs.String("arch", "x86", "instruction set: x86, arm or arm64")
	outDir := fs.String("out", "", "write asm.txt to this directory instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	arch, err := disasm.ParseArch(*archName)
	if err != nil {
		return err
	}

	f, err := common.open()
	if err != nil {
		return err
	}
	insts, err := disassemble(f, *binPath, disasm.Options{Arch: arch, MaxSteps: *common.maxSteps})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Decoded %d instructions\n", len(insts))

	lookup := disasm.FileLookup(f)
	annotators := []disasm.Annotator{disasm.RefAnnotator(f), disasm.TargetAnnotator(lookup)}
	if *outDir == "" {
		fmt.Print(disasm.Format(insts, lookup, annotators...))
		return nil
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return output.WriteASM(*outDir, insts, lookup, annotators...)
}

// disassemble reads the output file of f and decodes it row by row.
func disassemble(f *fas.File, binPath string, opts disasm.Options) ([]disasm.Inst, error) {
	if binPath == "" {
		binPath = outputPath(f)
	}
	data, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("read output file: %w", err)
	}
	opts.Symbols = disasm.FileLookup(f)
	return disasm.Rows(f, data, opts), nil
}

// outputPath locates the output file named in f. Relative names are taken
// relative to the directory of the .fas file.
func outputPath(f *fas.File) string {
	if filepath.IsAbs(f.OutputName) {
		return f.OutputName
	}
	return filepath.Join(f.Dir, f.OutputName)
}
