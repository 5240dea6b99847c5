package encoding

import "github.com/cbgeyer/sparc-ext-sim/ir"

// HWLOOP (op2=1) reuses the RD bit position for a 5-bit sub-opcode
// selecting which of the loop-register-init forms or the loop-start form
// this word encodes (original_source/include/sparc_v8-blockicc-selcc.h
// GET_HWLOOP_TYPE/SET_HWLOOP_TYPE). Shared verbatim by every target that
// carries HasHWLoops.
const (
	hwloopTypeSetS    = 0
	hwloopTypeSetE    = 1
	hwloopTypeSetBImm = 2
	hwloopTypeSetBReg = 3
	hwloopTypeStart   = 4
)

func encodeHWLoop(inst *ir.Instruction) (word uint32, ok bool, err error) {
	switch inst.Opcode {
	case ir.OpHWLoopStart:
		setOp(&word, fmtBranch)
		setOp2(&word, op2HWLoop)
		setRd(&word, hwloopTypeStart)
		return word, true, nil

	case ir.OpHWLoopInit:
		setOp(&word, fmtBranch)
		setOp2(&word, op2HWLoop)
		sel := inst.Operands[0].LoopReg
		arg := inst.Operands[1]
		switch sel {
		case ir.LoopRegStart:
			setRd(&word, hwloopTypeSetS)
			setImm22(&word, arg.Imm-int32(inst.InstrNo))
		case ir.LoopRegEnd:
			setRd(&word, hwloopTypeSetE)
			setImm22(&word, arg.Imm-int32(inst.InstrNo))
		case ir.LoopRegBound:
			if arg.Tag == ir.OperandRegister {
				setRd(&word, hwloopTypeSetBReg)
				setRs1(&word, arg.Reg)
			} else {
				setRd(&word, hwloopTypeSetBImm)
				setImm22(&word, arg.Imm)
			}
		}
		return word, true, nil
	}
	return 0, false, nil
}

func decodeHWLoop(word uint32) (inst *ir.Instruction, ok bool, err error) {
	if getOp(word) != fmtBranch || getOp2(word) != op2HWLoop {
		return nil, false, nil
	}
	switch getRd(word) {
	case hwloopTypeStart:
		return &ir.Instruction{Opcode: ir.OpHWLoopStart}, true, nil
	case hwloopTypeSetS:
		disp := signExtend(word&imm22Mask, 22)
		return &ir.Instruction{Opcode: ir.OpHWLoopInit, Operands: []ir.Operand{ir.LoopRegOperand(ir.LoopRegStart), ir.LabelAddr(disp)}}, true, nil
	case hwloopTypeSetE:
		disp := signExtend(word&imm22Mask, 22)
		return &ir.Instruction{Opcode: ir.OpHWLoopInit, Operands: []ir.Operand{ir.LoopRegOperand(ir.LoopRegEnd), ir.LabelAddr(disp)}}, true, nil
	case hwloopTypeSetBReg:
		return &ir.Instruction{Opcode: ir.OpHWLoopInit, Operands: []ir.Operand{ir.LoopRegOperand(ir.LoopRegBound), ir.Reg(getRs1(word))}}, true, nil
	case hwloopTypeSetBImm:
		imm := int32(word & imm22Mask)
		return &ir.Instruction{Opcode: ir.OpHWLoopInit, Operands: []ir.Operand{ir.LoopRegOperand(ir.LoopRegBound), ir.Imm22(imm)}}, true, nil
	}
	return nil, false, nil
}
