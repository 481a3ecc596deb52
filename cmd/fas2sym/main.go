package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "sym":
		err = cmdSym(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "dump":
		err = cmdDump(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "xref":
		err = cmdXref(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `fas2sym: flat assembler symbolic information converter

Usage:
  fas2sym sym    --fas <file> --format <fmt> [--regions <yaml>]  Write a debugger symbol file next to the input
  fas2sym info   --fas <file> [--json]                         Print header, tables and diagnostics
  fas2sym dump   --fas <file> --out <dir>                      Write model.json, symbols.json and listing.txt
  fas2sym disasm --fas <file> [--bin <file>] [--arch <arch>]   Disassemble the output file row by row
  fas2sym xref   --fas <file> --out <file.dot> [--branches]    Symbol reference graph in DOT format

Formats:
  nocash     no$gba .sym ("08000000 label")
  mesen      Mesen .mlb ("GbaPrgRom:0000000:label")

Flags:
  --fas <file>          Path to the .fas file written by fasm (-s option)
  --regions <yaml>      Memory region map for symbol files (default: GBA)
  --arch <arch>         x86, arm or arm64 (default x86)
  --bin <file>          Assembled output (default: output name recorded in the .fas)
  --branches            xref: add edges for decoded branch targets
  --verbose             Log decoding steps to stderr
  --max-steps <n>       Global loop cap
`)
}
