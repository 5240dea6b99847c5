// Command sparcsim loads and runs an assembled SPARC-V8 binary artifact,
// printing the final register and memory state unless silenced.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cbgeyer/sparc-ext-sim/config"
	"github.com/cbgeyer/sparc-ext-sim/debugger"
	"github.com/cbgeyer/sparc-ext-sim/diag"
	"github.com/cbgeyer/sparc-ext-sim/encoding"
	"github.com/cbgeyer/sparc-ext-sim/sim"
)

func main() {
	var (
		targetName = flag.String("t", "", "target variant (v8, v8-blockicc-movcc, v8-blockicc-selcc, v8-blockpreg-selcc)")
		inFile     = flag.String("i", "", "input file (default stdin)")
		outFile    = flag.String("o", "", "output file (default stdout)")
		silent     = flag.Bool("s", false, "suppress final register/memory dumps")
		debugMode  = flag.Bool("debug", false, "start in the line-oriented debugger instead of running to completion")
		tuiMode    = flag.Bool("tui", false, "use the tcell/tview TUI debugger (implies -debug)")
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
		fmt.Fprintf(os.Stderr, "sparcsim: loading config: %v\n", err)
		os.Exit(1)
	}
	if *targetName == "" {
		*targetName = cfg.Simulator.DefaultTarget
	}
	if *targetName == "" {
		fmt.Fprintln(os.Stderr, "sparcsim: -t <target> is required")
		os.Exit(1)
	}
	tgt, err := encoding.ByName(*targetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcsim: %v\n", err)
		os.Exit(1)
	}

	in, err := openInput(*inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcsim: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	m, err := sim.Load(in, tgt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcsim: %v\n", err)
		os.Exit(1)
	}

	out, err := openOutput(*outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparcsim: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	m.Out = out

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(m)
		var dbgErr error
		if *tuiMode {
			dbgErr = debugger.RunTUI(dbg)
		} else {
			dbgErr = debugger.RunCLI(dbg)
		}
		if dbgErr != nil {
			fmt.Fprintf(os.Stderr, "sparcsim: %v\n", dbgErr)
			os.Exit(1)
		}
		return
	}

	runErr := m.Run(cfg.Simulator.MaxCycles)

	silentDumps := *silent || cfg.Simulator.Silent
	if !silentDumps {
		fmt.Fprint(out, diag.DumpRegisters(m))
		fmt.Fprint(out, diag.DumpMemory(m, 0, int((m.Memory.Size()+15)/16)))
		fmt.Fprint(out, diag.DumpCycles(m))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "sparcsim: %v\n", runErr)
		os.Exit(1)
	}
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
	fmt.Fprint(os.Stderr, `sparcsim - SPARC-V8 extended-ISA simulator

Usage:
  sparcsim -t <target> [-i <inputfile>] [-o <outputfile>] [-s] [-debug | -tui]

Flags:
  -t string   target variant: v8, v8-blockicc-movcc, v8-blockicc-selcc, v8-blockpreg-selcc
              (if omitted, the config file's default_target is used; v8 unless set)
  -i string   input file (default stdin)
  -o string   output file (default stdout)
  -s          silent: suppress final register/memory/cycle dumps
  -debug      start in the line-oriented debugger instead of running to completion
  -tui        use the tcell/tview TUI debugger (implies -debug)
  -h          show this message

Exit status is 0 on success, 1 on any runtime fault.
`)
}
