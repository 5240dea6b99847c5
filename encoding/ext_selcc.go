package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// SELcc (op2=3) bit layout, transcribed from
// original_source/include/sparc_v8-blockicc-selcc.h. Shared by every target
// that carries HasSelCC (v8-blockicc-selcc, v8-blockpreg-selcc); the
// MOVcc-only target (v8-blockicc-movcc) never reaches this file.
const (
	selccTypeShift     = 20
	selccTypeMask      = 0x3
	selccICCShift      = 16
	selccICCMask       = 0xf
	selccRs1Shift      = 11
	selccRs1Mask       = 0x1f
	selccSimm11Mask    = 0x7ff
	selccSrc1Imm8Shift = 8
	selccImm8Mask      = 0xff

	selccTypeRegReg = 0
	selccTypeRegImm = 1
	selccTypeImmImm = 2
)

func encodeSelCC(inst *ir.Instruction) (word uint32, ok bool, err error) {
	if inst.Opcode != ir.OpSel {
		return 0, false, nil
	}
	setOp(&word, fmtBranch)
	setOp2(&word, op2SelCC)
	setRd(&word, inst.Operands[0].Reg)
	icc := inst.Operands[len(inst.Operands)-1].ICC
	word = (word &^ (selccICCMask << selccICCShift)) | ((uint32(icc) & selccICCMask) << selccICCShift)

	src1 := inst.Operands[1]
	if src1.Tag == ir.OperandRegister {
		word = (word &^ (selccRs1Mask << selccRs1Shift)) | ((uint32(src1.Reg) & selccRs1Mask) << selccRs1Shift)
		src2 := inst.Operands[2]
		if src2.Tag == ir.OperandSimm11 {
			word = (word &^ (selccTypeMask << selccTypeShift)) | (selccTypeRegImm << selccTypeShift)
			word = (word &^ selccSimm11Mask) | (uint32(src2.Imm) & selccSimm11Mask)
		} else {
			word = (word &^ (selccTypeMask << selccTypeShift)) | (selccTypeRegReg << selccTypeShift)
			word = (word &^ rs2Mask) | (uint32(src2.Reg) & rs2Mask)
		}
	} else {
		// src1 is simm8, src2 (operands[2]) is simm8 too.
		word = (word &^ (selccTypeMask << selccTypeShift)) | (selccTypeImmImm << selccTypeShift)
		word = (word &^ (selccImm8Mask << selccSrc1Imm8Shift)) | ((uint32(src1.Imm) & selccImm8Mask) << selccSrc1Imm8Shift)
		src2 := inst.Operands[2]
		word = (word &^ selccImm8Mask) | (uint32(src2.Imm) & selccImm8Mask)
	}
	return word, true, nil
}

func decodeSelCC(word uint32) (inst *ir.Instruction, ok bool, err error) {
	if getOp(word) != fmtBranch || getOp2(word) != op2SelCC {
		return nil, false, nil
	}
	dst := ir.Reg(getRd(word))
	icc := target.ConditionCode((word >> selccICCShift) & selccICCMask)
	switch (word >> selccTypeShift) & selccTypeMask {
	case selccTypeRegReg:
		src1 := int((word >> selccRs1Shift) & selccRs1Mask)
		src2 := int(word & rs2Mask)
		return &ir.Instruction{Opcode: ir.OpSel, Operands: []ir.Operand{dst, ir.Reg(src1), ir.Reg(src2), ir.ICCOperand(icc)}}, true, nil
	case selccTypeRegImm:
		src1 := int((word >> selccRs1Shift) & selccRs1Mask)
		imm := signExtend(word&selccSimm11Mask, 11)
		return &ir.Instruction{Opcode: ir.OpSel, Operands: []ir.Operand{dst, ir.Reg(src1), ir.Imm11(imm), ir.ICCOperand(icc)}}, true, nil
	case selccTypeImmImm:
		imm1 := signExtend((word>>selccSrc1Imm8Shift)&selccImm8Mask, 8)
		imm2 := signExtend(word&selccImm8Mask, 8)
		return &ir.Instruction{Opcode: ir.OpSel, Operands: []ir.Operand{dst, ir.Imm8(imm1), ir.Imm8(imm2), ir.ICCOperand(icc)}}, true, nil
	}
	return nil, false, nil
}
