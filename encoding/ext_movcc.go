package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// MOVcc (op2=3) bit layout. The original project's header for this target
// (v8-blockicc-movcc) was not part of the retrieved source tree, so this
// layout is original, built from the same generic field macros
// (SET_RD/GET_RD, SET_SIMM13/GET_SIMM13, the i-bit convention) the retrieved
// SELcc header already established for the sibling op2=3 slot, with the
// condition code parked at bits 16-19 (the offset SELcc uses for its icc)
// to stay clear of RD (25-29), op2 (22-24) and the simm13/i-bit fields
// (0-13).
const (
	movccICCShift = 16
	movccICCMask  = 0xf
)

func encodeMovCC(inst *ir.Instruction) (word uint32, ok bool, err error) {
	if inst.Opcode != ir.OpMovCC {
		return 0, false, nil
	}
	setOp(&word, fmtBranch)
	setOp2(&word, op2SelCC)
	setRd(&word, inst.Operands[0].Reg)
	icc := inst.Operands[2].ICC
	word = (word &^ (movccICCMask << movccICCShift)) | ((uint32(icc) & movccICCMask) << movccICCShift)
	if err := setReg2OrImm(&word, inst.Operands[1]); err != nil {
		return 0, true, err
	}
	return word, true, nil
}

func decodeMovCC(word uint32) (inst *ir.Instruction, ok bool, err error) {
	if getOp(word) != fmtBranch || getOp2(word) != op2SelCC {
		return nil, false, nil
	}
	dst := ir.Reg(getRd(word))
	icc := target.ConditionCode((word >> movccICCShift) & movccICCMask)
	src := decodeReg2OrImm(word)
	return &ir.Instruction{Opcode: ir.OpMovCC, Operands: []ir.Operand{dst, src, ir.ICCOperand(icc)}}, true, nil
}
