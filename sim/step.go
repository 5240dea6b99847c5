package sim

import (
	"fmt"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Step executes exactly one instruction in a fixed order: capture cur_pc,
// advance PC/nPC by one instruction slot (PC and nPC are instruction
// indices, not byte addresses; the termination sentinel is checked as
// PC == EndOfInsMem>>2), then let the hardware loop auto-branch on the
// new nPC before the current opcode is even decoded. Branch/call/jumpl
// override nPC, so the instruction after a taken transfer still executes
// once before control reaches the target, the usual delay-slot behavior.
// A handful of structural opcodes manage loop/predicate/cycle state
// directly and always take effect regardless of the predication gate,
// just as PC itself always advances when a predicated instruction is
// skipped.
func (m *Machine) Step() error {
	if m.State != StateRunning {
		return m.LastFault
	}

	curPC := m.PC
	m.PC = m.NPC
	m.NPC++

	if branchTo, ok := m.hwloop.checkAutoBranch(m.NPC); ok {
		m.NPC = branchTo
	}

	if m.isEndOfProgram(curPC) {
		m.State = StateHalted
		return nil
	}

	word, ok := m.fetchWord(curPC)
	if !ok {
		return m.fault(FaultBadMemoryAccess, "fetch past end of text segment")
	}

	inst, err := m.Target.Decode(word)
	if err != nil {
		return m.fault(FaultUnknownOpcode, err.Error())
	}
	inst.InstrNo = curPC

	// Hardware-loop and predicated-block *state* updates are never
	// themselves suppressed by the predication gate: gating PREDEND on its
	// own enclosing gate would make a closed block impossible to leave.
	// Everything else, the predicate-register writes of PREDSET/PREDCLEAR
	// included, sits behind the gate (via compute()+effects below).
	switch inst.Opcode {
	case ir.OpHWLoopInit:
		switch inst.Operands[0].LoopReg {
		case ir.LoopRegStart:
			m.hwloop.setStart(inst.InstrNo + uint32(inst.Operands[1].Imm))
		case ir.LoopRegEnd:
			m.hwloop.setEnd(inst.InstrNo + uint32(inst.Operands[1].Imm))
		case ir.LoopRegBound:
			m.hwloop.setBound(m.regOrImm(inst.Operands[1]))
		}
		m.addCycles(target.CyclesInteger)
		return nil

	case ir.OpHWLoopStart:
		m.hwloop.arm()
		m.addCycles(target.CyclesInteger)
		return nil

	case ir.OpPredBegin:
		// PredKind/PredICC/PredPReg/PredTF (set via AddICCPredicate/
		// AddPRegPredicate) annotate an ordinary instruction for the
		// disassembler's predicate suffix; they carry no bit-layout
		// encoding and play no part in gating execution here. The block
		// gate is entirely determined by this PREDBEGIN's own operand
		// shape.
		if inst.Operands[0].Tag == ir.OperandPReg {
			m.pred.beginPReg(inst.Operands[0].Reg, inst.Operands[1].TF)
		} else {
			m.pred.beginICC(inst.Operands[0].ICC)
		}
		m.addCycles(target.CyclesInteger)
		return nil

	case ir.OpPredEnd:
		m.pred.end()
		m.addCycles(target.CyclesInteger)
		return nil

	case ir.OpCyclePrint:
		fmt.Fprintf(m.Out, "%d\n", m.LocalCycles)
		m.ClearCycles()
		return nil

	case ir.OpCycleClear:
		m.ClearCycles()
		return nil
	}

	eff, err := m.compute(inst)
	if err != nil {
		return err
	}

	if m.pred.open(m.PSR) {
		// The window rotates before the register write: SAVE/RESTORE read
		// their sources in the old window but deposit the sum in the new
		// one.
		if eff.hasWindow {
			if eff.save {
				m.Regs.Save()
			} else {
				m.Regs.Restore()
			}
			m.PSR.CWP = m.Regs.CWP()
		}
		if eff.hasReg {
			m.Regs.Write(eff.reg, eff.val)
		}
		if eff.hasMem {
			m.commitMem(eff)
		}
		if eff.hasFlags {
			m.PSR.N, m.PSR.Z, m.PSR.V, m.PSR.C = eff.n, eff.z, eff.v, eff.c
		}
		if eff.hasY {
			m.Y = eff.y
		}
		if eff.hasPReg {
			m.pred.regs.set(eff.pregN, eff.pregT, eff.pregF)
		}
		if eff.branch {
			m.NPC = eff.branchPC
		}
	}

	m.addCycles(eff.cycles)
	return nil
}

// addCycles adds to both cycle counters; it never touches PC/nPC, which
// step 1 of the algorithm has already advanced (and a branch/call/jumpl
// effect may have overridden) by the time this runs.
func (m *Machine) addCycles(cycles int) {
	m.Cycles += uint32(cycles)
	m.LocalCycles += uint32(cycles)
}

func (m *Machine) commitMem(eff effects) {
	switch eff.memWidth {
	case 1:
		m.Memory.WriteByte(eff.memAddr, byte(eff.memVal))
	case 2:
		m.Memory.WriteHalf(eff.memAddr, uint16(eff.memVal))
	case 4:
		m.Memory.WriteWord(eff.memAddr, eff.memVal)
	}
}

// Run steps the machine until it halts, faults, or hits the instruction
// budget (0 means unbounded).
func (m *Machine) Run(maxInstructions uint64) error {
	var n uint64
	for m.State == StateRunning {
		if maxInstructions > 0 && n >= maxInstructions {
			return m.fault(FaultCycleLimit, "instruction budget exceeded")
		}
		if err := m.Step(); err != nil {
			return err
		}
		n++
	}
	if m.LastFault != nil {
		return m.LastFault
	}
	return nil
}
