package sim

import (
	"io"
	"os"

	"github.com/cbgeyer/sparc-ext-sim/encoding"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// State is the machine's run state.
type State int

const (
	StateRunning State = iota
	StateHalted
	StateError
)

// Machine is the SPARC-V8 interpreter: register windows, PSR, Y register,
// hardware-loop and predicate state, and a linear memory, driven one
// instruction at a time by Step.
type Machine struct {
	Target encoding.Target

	Regs *Registers
	PSR  PSR
	Y    uint32

	PC, NPC uint32

	hwloop hwloopState
	pred   predState

	Memory  *Memory
	program []uint32

	// Cycle counters are 32-bit and wrap, like the hardware's.
	Cycles      uint32
	LocalCycles uint32

	State     State
	LastFault *Fault

	// Out receives sim-printcycles output; defaults to os.Stdout.
	Out io.Writer
}

// NewMachine creates a Machine for the given target with a memory region
// sized for dataSize declared bytes of data plus scratch space.
func NewMachine(t encoding.Target, dataSize uint32) *Machine {
	m := &Machine{
		Target: t,
		Regs:   NewRegisters(),
		Memory: NewMemory(dataSize),
		State:  StateRunning,
		Out:    os.Stdout,
	}
	m.Reset()
	return m
}

// Reset returns every piece of machine state to its power-on value: CWP
// at the top window, PC at 0 and nPC at 1, registers and predicate/loop state
// zeroed, cycle counters zeroed.
func (m *Machine) Reset() {
	m.Regs.Reset()
	m.PSR = PSR{CWP: int(target.PSRInitMask)}
	m.Y = 0
	m.PC = 0
	m.NPC = 1
	m.hwloop.reset()
	m.pred.reset()
	m.Cycles = 0
	m.LocalCycles = 0
	m.State = StateRunning
	m.LastFault = nil

	// %sp = top of data memory - 4; %o7 = EndOfInsMem - 8, so that the
	// entry function's epilogue ("jumpl %o7+8, %g0") drives nPC to the
	// sentinel index and halts the simulation.
	if m.Memory != nil {
		m.Regs.Write(target.SPRegister, m.Memory.Size()-4)
	}
	m.Regs.Write(target.CallAddrRegister, target.EndOfInsMem-8)
}

// ClearCycles resets only the resettable local cycle counter, the state
// behind the sim-clearcycles intrinsic.
func (m *Machine) ClearCycles() { m.LocalCycles = 0 }

// fetchWord returns the raw instruction word at the given instruction
// index (PC and nPC are instruction indices, not byte addresses), or
// ok=false past the end of the text segment.
func (m *Machine) fetchWord(pc uint32) (uint32, bool) {
	if pc >= uint32(len(m.program)) {
		return 0, false
	}
	return m.program[pc], true
}

// isEndOfProgram reports whether pc is the simulator's sentinel
// termination index or has run off the end of the
// text segment.
func (m *Machine) isEndOfProgram(pc uint32) bool {
	return pc == target.EndOfInsMem>>2 || pc >= uint32(len(m.program))
}

// InstructionAt returns the raw instruction word at instruction index idx,
// for disassembly views that walk the text segment without stepping it.
func (m *Machine) InstructionAt(idx uint32) (uint32, bool) { return m.fetchWord(idx) }

// ProgramLen returns the number of instruction words loaded into the text
// segment.
func (m *Machine) ProgramLen() int { return len(m.program) }

// PredRegs returns the packed predicate register: one (t, f) bit pair per
// predicate register, 16 pairs in 32 bits.
func (m *Machine) PredRegs() uint32 { return uint32(m.pred.regs) }

// PredicateActive reports whether an ordinary instruction would commit its
// effects right now, for debugger inspection of predicated-block state.
func (m *Machine) PredicateActive() bool { return m.pred.open(m.PSR) }

// HWLoopState exposes the hardware loop's configured bounds and arm state
// for debugger inspection.
func (m *Machine) HWLoopState() (start, end, bound uint32, armed bool) {
	return m.hwloop.start, m.hwloop.end, m.hwloop.bound, m.hwloop.active
}

// fault records a fatal runtime error and halts the machine.
func (m *Machine) fault(kind FaultKind, msg string) *Fault {
	f := newFault(kind, m.PC, msg)
	m.LastFault = f
	m.State = StateError
	return f
}
