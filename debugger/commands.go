package debugger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/sim"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// cmdRun resets the machine and starts execution from its initial state.
func (d *Debugger) cmdRun(args []string) error {
	d.Machine.Reset()
	d.Machine.State = sim.StateRunning
	d.Running = true
	d.StepMode = StepNone

	d.Println("Starting program execution...")
	return nil
}

// cmdContinue resumes execution from the current PC/nPC.
func (d *Debugger) cmdContinue(args []string) error {
	if d.Machine.State == sim.StateHalted {
		return fmt.Errorf("program is not running")
	}

	d.Machine.State = sim.StateRunning
	d.Running = true
	d.StepMode = StepNone

	d.Println("Continuing...")
	return nil
}

// cmdStep executes a single instruction.
func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

// cmdBreak sets a breakpoint at an instruction index or label.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <instr-no|label> [if <condition>]")
	}

	instrNo, err := d.ResolveInstrNo(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(instrNo, false, condition)

	if condition != "" {
		d.Printf("Breakpoint %d at instruction %d (condition: %s)\n", bp.ID, instrNo, condition)
	} else {
		d.Printf("Breakpoint %d at instruction %d\n", bp.ID, instrNo)
	}

	return nil
}

// cmdTBreak sets a one-shot breakpoint that deletes itself after its first hit.
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <instr-no|label>")
	}

	instrNo, err := d.ResolveInstrNo(args[0])
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(instrNo, true, "")
	d.Printf("Temporary breakpoint %d at instruction %d\n", bp.ID, instrNo)

	return nil
}

// cmdDelete removes one breakpoint, or all of them if no ID is given.
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a register (%g0-%g7/%o0-%o7/%l0-%l7/%i0-%i7,
// or sp) or a memory word ([0x1000] or [label]); pc, npc and y are rejected.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <register|[address]>")
	}

	expression := strings.Join(args, " ")
	isRegister, register, address, err := d.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := d.Watchpoints.AddWatchpoint(WatchWrite, expression, address, isRegister, register)

	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.Machine); err != nil {
		_ = d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

func (d *Debugger) parseWatchExpression(expr string) (isRegister bool, register int, address uint32, err error) {
	trimmed := strings.TrimSpace(expr)

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		addrStr := strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
		addr, err := d.Evaluator.EvaluateExpression(addrStr, d.Machine, d.Symbols)
		if err != nil {
			return false, 0, 0, err
		}
		return false, 0, addr, nil
	}

	lower := strings.ToLower(trimmed)
	switch lower {
	case "pc", "npc":
		return false, 0, 0, fmt.Errorf("cannot watch pc/npc directly, use a breakpoint")
	case "y", "%y":
		return false, 0, 0, fmt.Errorf("cannot watch y directly, use repeated 'print y'")
	case "sp", "%sp":
		return true, target.SPRegister, 0, nil
	}

	if strings.HasPrefix(lower, "%") && len(lower) >= 3 {
		class := lower[1]
		var n int
		if _, scanErr := fmt.Sscanf(lower[2:], "%d", &n); scanErr == nil && n >= 0 && n <= 7 {
			var base int
			switch class {
			case 'g':
				base = target.GReg
			case 'o':
				base = target.OReg
			case 'l':
				base = target.LReg
			case 'i':
				base = target.IReg
			default:
				return false, 0, 0, fmt.Errorf("invalid register class: %s", trimmed)
			}
			return true, base + n, 0, nil
		}
	}

	addr, resolveErr := d.ResolveInstrNo(trimmed)
	if resolveErr != nil {
		return false, 0, 0, fmt.Errorf("invalid watch expression: %s", trimmed)
	}
	return false, 0, addr, nil
}

// cmdPrint evaluates an expression and records it in the $-history.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expression, d.Machine, d.Symbols)
	if err != nil {
		return err
	}

	n := len(d.Evaluator.valueHistory)
	if result > uint32(math.MaxInt32) {
		d.Printf("$%d = 0x%08X (%d)\n", n, result, result)
	} else {
		d.Printf("$%d = 0x%08X (%d)\n", n, result, int32(result))
	}
	return nil
}

// cmdInfo dispatches "info registers|breakpoints|watchpoints|predicate|hwloop".
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|breakpoints|watchpoints|predicate|hwloop>")
	}

	switch strings.ToLower(args[0]) {
	case "registers", "reg", "r":
		return d.showRegisters()
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "predicate", "pred", "p":
		return d.showPredicate()
	case "hwloop", "loop", "l":
		return d.showHWLoop()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

func (d *Debugger) showRegisters() error {
	m := d.Machine
	d.Println("Registers:")
	for i := 0; i < 8; i++ {
		d.Printf("  %%g%d = 0x%08X  %%o%d = 0x%08X  %%l%d = 0x%08X  %%i%d = 0x%08X\n",
			i, m.Regs.Read(target.GReg+i),
			i, m.Regs.Read(target.OReg+i),
			i, m.Regs.Read(target.LReg+i),
			i, m.Regs.Read(target.IReg+i))
	}
	d.Printf("  PC  = %d   nPC = %d   Y = 0x%08X   CWP = %d\n", m.PC, m.NPC, m.Y, m.PSR.CWP)

	flags := ""
	for _, f := range []bool{m.PSR.N, m.PSR.Z, m.PSR.V, m.PSR.C} {
		if f {
			flags += "1"
		} else {
			flags += "0"
		}
	}
	d.Printf("  PSR[n z v c] = [%s]\n", flags)
	return nil
}

func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}
		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}
		d.Printf("  %d: instruction %d %s%s%s (hit %d times)\n",
			bp.ID, bp.InstrNo, status, temp, condition, bp.HitCount)
	}
	return nil
}

func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}
		d.Printf("  %d: %s %s (hit %d times, last value: 0x%08X)\n",
			wp.ID, wp.Expression, status, wp.HitCount, wp.LastValue)
	}
	return nil
}

func (d *Debugger) showPredicate() error {
	m := d.Machine
	d.Printf("Predicate gate active: %v\n", m.PredicateActive())
	return nil
}

func (d *Debugger) showHWLoop() error {
	m := d.Machine
	start, end, bound, armed := m.HWLoopState()
	d.Printf("Hardware loop: start=%d end=%d bound=%d armed=%v\n", start, end, bound, armed)
	return nil
}

// cmdReset resets the machine to its initial state without starting execution.
func (d *Debugger) cmdReset(args []string) error {
	d.Machine.Reset()
	d.Println("Machine reset")
	return nil
}

// cmdHelp prints the command summary, or detail for a single command.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("sparcsim debugger commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  run (r)             - Reset and start execution")
	d.Println("  continue (c)        - Continue execution")
	d.Println("  step (s, si)        - Execute a single instruction")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <n>       - Set breakpoint at instruction index or label")
	d.Println("  tbreak (tb) <n>     - Set a temporary breakpoint")
	d.Println("  delete (d) [id]     - Delete breakpoint(s)")
	d.Println("  enable <id>         - Enable breakpoint")
	d.Println("  disable <id>        - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <expr>    - Watch a register or memory word for changes")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>    - Evaluate an expression")
	d.Println("  info (i) <what>     - registers, breakpoints, watchpoints, predicate, hwloop")
	d.Println()
	d.Println("Control:")
	d.Println("  reset               - Reset the machine")
	d.Println("  help (h, ?)         - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <instr-no|label> [if <condition>]\n  Set a breakpoint. The optional condition is evaluated each time it is hit.",
		"step":  "step\n  Execute a single instruction.",
		"print": "print <expression>\n  Evaluate and print an expression over registers, PSR flags, memory and symbols.",
		"watch": "watch <register|[address]>\n  Break when the named register or memory word changes value.",
		"info":  "info <registers|breakpoints|watchpoints|predicate|hwloop>\n  Display information about machine state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
