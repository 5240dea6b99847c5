package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// PREDBLOCKS-on-ICC (op2=5): PREDBEGIN/PREDEND gate a block on the live
// integer condition codes. The A-bit (bit 29) distinguishes begin from
// end and the condition itself reuses the generic cond field (bits 25-28,
// the same position Bicc uses) exactly as
// original_source/include/sparc_v8-blockicc-selcc.h's
// PRED_BLOCK_SET_BEGIN/SET_END/IS_BEGIN macros reuse the A-bit. Used only
// by targets carrying HasPredBlocksCC (not HasPredBlocksReg).
func encodePredCC(inst *ir.Instruction) (word uint32, ok bool, err error) {
	switch inst.Opcode {
	case ir.OpPredBegin:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		setA(&word, true)
		setCond(&word, uint32(inst.Operands[0].ICC))
		return word, true, nil
	case ir.OpPredEnd:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		setA(&word, false)
		return word, true, nil
	}
	return 0, false, nil
}

func decodePredCC(word uint32) (inst *ir.Instruction, ok bool, err error) {
	if getOp(word) != fmtBranch || getOp2(word) != op2PredBlocks {
		return nil, false, nil
	}
	if getA(word) {
		cc := target.ConditionCode(getCond(word))
		return &ir.Instruction{Opcode: ir.OpPredBegin, Operands: []ir.Operand{ir.ICCOperand(cc)}}, true, nil
	}
	return &ir.Instruction{Opcode: ir.OpPredEnd}, true, nil
}
