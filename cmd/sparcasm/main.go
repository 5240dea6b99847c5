// Command sparcasm assembles SPARC-V8 integer-ISA source text into the
// toolchain's binary artifact format.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cbgeyer/sparc-ext-sim/asm"
	"github.com/cbgeyer/sparc-ext-sim/config"
	"github.com/cbgeyer/sparc-ext-sim/encoding"
	"github.com/cbgeyer/sparc-ext-sim/parsefe"
)

func main() {
	var (
		targetName = flag.String("t", "", "target variant (v8, v8-blockicc-movcc, v8-blockicc-selcc, v8-blockpreg-selcc)")
		inFile     = flag.String("i", "", "input file (default stdin)")
		outFile    = flag.String("o", "", "output file (default stdout)")
		help       = flag.Bool("h", false, "show usage")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: loading config: %v\n", err)
		os.Exit(1)
	}
	if *targetName == "" {
		*targetName = cfg.Assembler.DefaultTarget
	}
	if *targetName == "" {
		fmt.Fprintln(os.Stderr, "sparcasm: -t <target> is required")
		os.Exit(1)
	}
	tgt, err := encoding.ByName(*targetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: %v\n", err)
		os.Exit(1)
	}

	in, err := openInput(*inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	src, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: reading input: %v\n", err)
		os.Exit(1)
	}

	a, err := parsefe.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: parse error: %v\n", err)
		os.Exit(1)
	}

	if err := a.CheckLabels(); err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: %v\n", err)
		os.Exit(1)
	}

	out, err := openOutput(*outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := emit(a, tgt, out); err != nil {
		fmt.Fprintf(os.Stderr, "sparcasm: %v\n", err)
		os.Exit(1)
	}
}

// emit writes the 10-byte header followed by the data and text segments.
// The header's data size covers only the declared data segment; the
// simulator appends its own scratch region when sizing memory.
func emit(a *asm.Assembler, tgt encoding.Target, w io.Writer) error {
	dataSize := a.DataSize()
	textSize := a.TextSize()

	var hdr [10]byte
	hdr[0] = byte(uint16(tgt.ID()) >> 8)
	hdr[1] = byte(uint16(tgt.ID()))
	hdr[2] = byte(dataSize >> 24)
	hdr[3] = byte(dataSize >> 16)
	hdr[4] = byte(dataSize >> 8)
	hdr[5] = byte(dataSize)
	hdr[6] = byte(textSize >> 24)
	hdr[7] = byte(textSize >> 16)
	hdr[8] = byte(textSize >> 8)
	hdr[9] = byte(textSize)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := a.EmitData(w, dataSize); err != nil {
		return fmt.Errorf("writing data segment: %w", err)
	}
	if err := a.EmitInstructions(w, tgt); err != nil {
		return fmt.Errorf("writing text segment: %w", err)
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path) // #nosec G304 -- user-specified input path
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path) // #nosec G304 -- user-specified output path
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func printUsage() {
	fmt.Fprint(os.Stderr, `sparcasm - SPARC-V8 extended-ISA assembler

Usage:
  sparcasm -t <target> [-i <inputfile>] [-o <outputfile>]

Flags:
  -t string   target variant: v8, v8-blockicc-movcc, v8-blockicc-selcc, v8-blockpreg-selcc
              (if omitted, the config file's default_target is used; v8 unless set)
  -i string   input file (default stdin)
  -o string   output file (default stdout)
  -h          show this message

Exit status is 0 on success, 1 on any assembly error.
`)
}
