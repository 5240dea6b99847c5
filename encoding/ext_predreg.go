package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// PREDBLOCKS-on-predicate-register (op2=5) bit layout: a 2-bit type
// selector (begin/end/set/clear) at the same bit offset SELcc uses for
// its own type field in the sibling op2=3 slot, the preg number in the
// rd field for PREDSET/PREDCLEAR and in rs2-space for PREDBEGIN, a t/f
// bit in the i-bit position, and the icc field shared with SELcc's icc
// offset. PREDCLEAR is PREDSET with the "never" condition baked in.
// Used only by the target carrying HasPredBlocksReg.
const (
	predRegTypeShift = 20
	predRegTypeMask  = 0x3
	predRegNumMask   = 0xf
	predRegTFBit     = 13
	predRegICCShift  = 16
	predRegICCMask   = 0xf

	predRegTypeBegin = 0
	predRegTypeEnd   = 1
	predRegTypeSet   = 2
	predRegTypeClear = 3
)

func encodePredReg(inst *ir.Instruction) (word uint32, ok bool, err error) {
	switch inst.Opcode {
	case ir.OpPredBegin:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		word |= predRegTypeBegin << predRegTypeShift
		word = (word &^ predRegNumMask) | (uint32(inst.Operands[0].Reg) & predRegNumMask)
		if inst.Operands[1].TF {
			word |= 1 << predRegTFBit
		}
		return word, true, nil
	case ir.OpPredEnd:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		word |= predRegTypeEnd << predRegTypeShift
		return word, true, nil
	case ir.OpPredSet:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		word |= predRegTypeSet << predRegTypeShift
		setRd(&word, inst.Operands[0].Reg&int(predRegNumMask))
		word = (word &^ (predRegICCMask << predRegICCShift)) | ((uint32(inst.Operands[1].ICC) & predRegICCMask) << predRegICCShift)
		return word, true, nil
	case ir.OpPredClear:
		setOp(&word, fmtBranch)
		setOp2(&word, op2PredBlocks)
		word |= predRegTypeClear << predRegTypeShift
		setRd(&word, inst.Operands[0].Reg&int(predRegNumMask))
		word = (word &^ (predRegICCMask << predRegICCShift)) | (uint32(target.CCN) << predRegICCShift)
		return word, true, nil
	}
	return 0, false, nil
}

func decodePredReg(word uint32) (inst *ir.Instruction, ok bool, err error) {
	if getOp(word) != fmtBranch || getOp2(word) != op2PredBlocks {
		return nil, false, nil
	}
	switch (word >> predRegTypeShift) & predRegTypeMask {
	case predRegTypeBegin:
		preg := int(word & predRegNumMask)
		tf := (word>>predRegTFBit)&1 != 0
		return &ir.Instruction{Opcode: ir.OpPredBegin, Operands: []ir.Operand{ir.PReg(preg), ir.TFOperand(tf)}}, true, nil
	case predRegTypeEnd:
		return &ir.Instruction{Opcode: ir.OpPredEnd}, true, nil
	case predRegTypeSet:
		preg := getRd(word) & int(predRegNumMask)
		cc := target.ConditionCode((word >> predRegICCShift) & predRegICCMask)
		return &ir.Instruction{Opcode: ir.OpPredSet, Operands: []ir.Operand{ir.PReg(preg), ir.ICCOperand(cc)}}, true, nil
	case predRegTypeClear:
		preg := getRd(word) & int(predRegNumMask)
		return &ir.Instruction{Opcode: ir.OpPredClear, Operands: []ir.Operand{ir.PReg(preg), ir.ICCOperand(target.CCN)}}, true, nil
	}
	return nil, false, nil
}
