package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"fas2sym/internal/fas"
	"fas2sym/internal/fasfmt"
)

type commonFlags struct {
	fas      *string
	verbose  *bool
	maxSteps *int
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		fas:      fs.String("fas", "", "path to the .fas file"),
		verbose:  fs.Bool("verbose", false, "log decoding steps to stderr"),
		maxSteps: fs.Int("max-steps", 0, "global loop cap"),
	}
}

func (c commonFlags) options() fasfmt.Options {
	return fasfmt.Options{MaxSteps: *c.maxSteps}
}

// open decodes the input file. An invalid file is an error carrying every
// diagnostic; the file is returned anyway for callers that report on it.
func (c commonFlags) open() (*fas.File, error) {
	if *c.fas == "" {
		return nil, fmt.Errorf("--fas is required")
	}
	if *c.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		fas.SetLogger(log)
	}

	f, err := fas.Open(*c.fas, c.options())
	if err != nil {
		return f, fmt.Errorf("%s: %w%s", *c.fas, err, diagList(f))
	}
	fmt.Fprintf(os.Stderr, "FAS: %s -> %s, %d symbols, %d lines, %d rows\n",
		f.InputName, f.OutputName, len(f.Symbols), len(f.Lines), len(f.Rows))
	return f, nil
}

func diagList(f *fas.File) string {
	if f == nil || len(f.Diags) == 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range f.Diags {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}
