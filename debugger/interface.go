package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/sim"
)

// RunCLI runs the line-oriented command-line debugger interface: a
// read-eval-print loop over bufio.Scanner with a nested run loop that
// steps the machine until a breakpoint, watchpoint, fault, or halt.
func RunCLI(dbg *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(sparc-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if output := dbg.GetOutput(); output != "" {
			fmt.Print(output)
		}

		runUntilStop(dbg)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

// runUntilStop drives dbg.Machine forward while dbg.Running is set, honoring
// single-step mode (exactly one instruction, then stop) and otherwise
// stepping until a breakpoint/watchpoint fires or the machine halts/faults.
func runUntilStop(dbg *Debugger) {
	for dbg.Running {
		if dbg.StepMode == StepSingle {
			dbg.StepMode = StepNone
			stepOnce(dbg)
			dbg.Running = false
			return
		}

		if shouldBreak, reason := dbg.ShouldBreak(); shouldBreak {
			dbg.Running = false
			fmt.Printf("Stopped: %s at PC=%d\n", reason, dbg.Machine.PC)
			return
		}

		if !stepOnce(dbg) {
			return
		}
	}
}

// stepOnce executes a single instruction and reports whether the caller
// should keep running (false on fault or halt, after printing a message).
func stepOnce(dbg *Debugger) bool {
	if err := dbg.Machine.Step(); err != nil {
		fmt.Printf("Runtime error: %v\n", err)
		dbg.Running = false
		return false
	}
	if dbg.Machine.State == sim.StateHalted {
		dbg.Running = false
		fmt.Printf("Program halted (cycles=%d)\n", dbg.Machine.Cycles)
		return false
	}
	return true
}

// RunTUI runs the tcell/tview text user interface debugger.
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
