// Package debugger implements an interactive stepper over a sim.Machine:
// breakpoints, watchpoints, a small expression evaluator for conditions,
// a line-oriented CLI, and a tcell/tview TUI.
package debugger

import (
	"fmt"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/sim"
)

// StepMode distinguishes the granularity of a "continue" request.
type StepMode int

const (
	StepNone StepMode = iota
	StepSingle
)

// Debugger holds the interactive session state around a sim.Machine.
type Debugger struct {
	Machine *sim.Machine

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Symbols map[string]uint32

	Running  bool
	StepMode StepMode

	LastCommand string
	Output      strings.Builder
}

func NewDebugger(m *sim.Machine) *Debugger {
	return &Debugger{
		Machine:     m,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Evaluator:   NewExpressionEvaluator(),
		Symbols:     make(map[string]uint32),
	}
}

// LoadSymbols installs a label -> instruction-index table (from the
// assembler's label table) for address resolution in commands/expressions.
func (d *Debugger) LoadSymbols(symbols map[string]uint32) { d.Symbols = symbols }

// ResolveInstrNo resolves a label or a numeric literal to an instruction
// index.
func (d *Debugger) ResolveInstrNo(s string) (uint32, error) {
	if addr, exists := d.Symbols[s]; exists {
		return addr, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("invalid instruction index: %s", s)
	}
	return v, nil
}

// ExecuteCommand parses and dispatches one command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}
	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)
	case "watch", "w":
		return d.cmdWatch(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "reset":
		return d.cmdReset(args)
	case "help", "h", "?":
		return d.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak reports whether execution should pause before the instruction
// at the current PC executes: breakpoints checked first, then watchpoints.
// Step-mode handling is applied separately by the run loop in interface.go.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Machine.PC

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil && bp.Enabled {
		hit := true
		if bp.Condition != "" {
			ok, err := d.Evaluator.Evaluate(bp.Condition, d.Machine, d.Symbols)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			hit = ok
		}
		if hit {
			bp.HitCount++
			if bp.Temporary {
				_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
			}
			return true, fmt.Sprintf("breakpoint %d", bp.ID)
		}
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.Machine); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}
