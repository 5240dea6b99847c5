package encoding

import (
	"fmt"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

var arithOp3 = map[ir.Opcode]uint32{
	ir.OpAnd: op3AND, ir.OpAndCC: op3ANDCC, ir.OpAndN: op3ANDN, ir.OpAndNCC: op3ANDNCC,
	ir.OpOr: op3OR, ir.OpOrCC: op3ORCC, ir.OpOrN: op3ORN, ir.OpOrNCC: op3ORNCC,
	ir.OpXor: op3XOR, ir.OpXorCC: op3XORCC, ir.OpXnor: op3XNOR, ir.OpXnorCC: op3XNORCC,
	ir.OpSLL: op3SLL, ir.OpSRL: op3SRL, ir.OpSRA: op3SRA,
	ir.OpAdd: op3ADD, ir.OpAddCC: op3ADDCC, ir.OpAddX: op3ADDX, ir.OpAddXCC: op3ADDXCC, ir.OpTaddCC: op3TADDCC,
	ir.OpSub: op3SUB, ir.OpSubCC: op3SUBCC, ir.OpSubX: op3SUBX, ir.OpSubXCC: op3SUBXCC, ir.OpTsubCC: op3TSUBCC,
	ir.OpUMul: op3UMUL, ir.OpUMulCC: op3UMULCC, ir.OpSMul: op3SMUL, ir.OpSMulCC: op3SMULCC,
	ir.OpUDiv: op3UDIV, ir.OpUDivCC: op3UDIVCC, ir.OpSDiv: op3SDIV, ir.OpSDivCC: op3SDIVCC,
	ir.OpSave: op3SAVE, ir.OpRestore: op3RESTORE, ir.OpJumpl: op3JUMPL,
}

var arithOp3Rev = func() map[uint32]ir.Opcode {
	m := make(map[uint32]ir.Opcode, len(arithOp3))
	for k, v := range arithOp3 {
		m[v] = k
	}
	return m
}()

var memOp3 = map[ir.Opcode]uint32{
	ir.OpLDSB: op3LDSB, ir.OpLDSH: op3LDSH, ir.OpLDUB: op3LDUB, ir.OpLDUH: op3LDUH, ir.OpLD: op3LD, ir.OpLDD: op3LDD,
	ir.OpSTB: op3STB, ir.OpSTH: op3STH, ir.OpST: op3ST, ir.OpSTD: op3STD,
	ir.OpLdstub: op3LDSTUB, ir.OpSwap: op3SWAP,
}

var memOp3Rev = func() map[uint32]ir.Opcode {
	m := make(map[uint32]ir.Opcode, len(memOp3))
	for k, v := range memOp3 {
		m[v] = k
	}
	// The ASI variants (op3 | 0x10) decode to their ordinary forms; this
	// target has no MMU, so the address-space identifier is meaningless.
	m[op3LDSB|0x10] = ir.OpLDSB
	m[op3LDSH|0x10] = ir.OpLDSH
	m[op3LDUB|0x10] = ir.OpLDUB
	m[op3LDUH|0x10] = ir.OpLDUH
	m[op3LD|0x10] = ir.OpLD
	m[op3STB|0x10] = ir.OpSTB
	m[op3STH|0x10] = ir.OpSTH
	m[op3ST|0x10] = ir.OpST
	return m
}()

// setReg2OrImm encodes op, which is either a register or a simm13, into
// the rs2/simm13 field of w.
func setReg2OrImm(w *uint32, op ir.Operand) error {
	switch op.Tag {
	case ir.OperandRegister:
		setRs2(w, op.Reg)
	case ir.OperandSimm13:
		setSimm13(w, op.Imm)
	default:
		return fmt.Errorf("encoding: expected register or simm13 operand, got tag %d", op.Tag)
	}
	return nil
}

func decodeReg2OrImm(w uint32) ir.Operand {
	if getI(w) {
		return ir.Imm13(signExtend(w&simm13Mask, 13))
	}
	return ir.Reg(getRs2(w))
}

// encodeBase handles every base SPARC-V8 opcode, common to all four
// target variants. It returns ok=false for opcodes it does not recognize
// (the extension opcodes, which each variant handles itself).
func encodeBase(inst *ir.Instruction) (word uint32, ok bool, err error) {
	switch inst.Opcode {
	case ir.OpCall:
		setOp(&word, fmtCall)
		// disp30 is filled once the label has been resolved to an
		// absolute instruction index by the assembler's CheckLabels pass;
		// the displacement itself is computed relative to this
		// instruction's own index.
		dest := inst.Operands[0].Imm
		setDisp30(&word, dest-int32(inst.InstrNo))
		return word, true, nil

	case ir.OpBranch:
		setOp(&word, fmtBranch)
		setOp2(&word, op2Bicc)
		icc := inst.Operands[0].ICC
		setCond(&word, uint32(icc))
		dest := inst.Operands[1].Imm
		setImm22(&word, dest-int32(inst.InstrNo))
		setA(&word, false)
		return word, true, nil

	case ir.OpSethi:
		setOp(&word, fmtBranch)
		setOp2(&word, op2Sethi)
		setRd(&word, inst.Operands[0].Reg)
		setImm22(&word, inst.Operands[1].Imm)
		return word, true, nil

	case ir.OpNop:
		setOp(&word, fmtBranch)
		setOp2(&word, op2Sethi)
		setRd(&word, 0)
		setImm22(&word, 0)
		return word, true, nil

	case ir.OpRd:
		// rs1 is left unset: the only readable special register this
		// toolchain models is %y, so op3RDY alone identifies it and the
		// operand doesn't need a bit-field home (it wouldn't fit one --
		// target.YRegisterNo is 32, outside the 5-bit rs1 field).
		setOp(&word, fmtOther)
		setOp3(&word, op3RDY)
		setRd(&word, inst.Operands[0].Reg)
		return word, true, nil

	case ir.OpCyclePrint:
		setOp(&word, fmtBranch)
		setOp2(&word, op2Unimp)
		setRd(&word, simCyclesPrint)
		return word, true, nil

	case ir.OpCycleClear:
		setOp(&word, fmtBranch)
		setOp2(&word, op2Unimp)
		setRd(&word, simCyclesClear)
		return word, true, nil

	case ir.OpWr:
		// rd is left unset for the same reason as OpRd: %y is the only
		// writable special register op3WRY reaches, and its number (32)
		// doesn't fit the 5-bit rd field anyway.
		setOp(&word, fmtOther)
		setOp3(&word, op3WRY)
		setRs1(&word, inst.Operands[1].Reg)
		if err := setReg2OrImm(&word, inst.Operands[2]); err != nil {
			return 0, true, err
		}
		return word, true, nil
	}

	if op3, isArith := arithOp3[inst.Opcode]; isArith {
		setOp(&word, fmtOther)
		setOp3(&word, op3)
		setRd(&word, inst.Operands[0].Reg)
		setRs1(&word, inst.Operands[1].Reg)
		if err := setReg2OrImm(&word, inst.Operands[2]); err != nil {
			return 0, true, err
		}
		return word, true, nil
	}

	if op3, isMem := memOp3[inst.Opcode]; isMem {
		setOp(&word, fmtMem)
		setOp3(&word, op3)
		setRd(&word, inst.Operands[0].Reg)
		setRs1(&word, inst.Operands[1].Reg)
		if err := setReg2OrImm(&word, inst.Operands[2]); err != nil {
			return 0, true, err
		}
		return word, true, nil
	}

	return 0, false, nil
}

// decodeBase is the inverse of encodeBase, dispatching purely on the op/
// op2/op3 fields of word. ok=false means the word belongs to the
// extension space a variant decoder must interpret itself.
func decodeBase(word uint32) (inst *ir.Instruction, ok bool, err error) {
	switch getOp(word) {
	case fmtCall:
		disp := signExtend(word&disp30Mask, 30)
		return &ir.Instruction{Opcode: ir.OpCall, Operands: []ir.Operand{ir.LabelAddr(disp)}}, true, nil

	case fmtBranch:
		switch getOp2(word) {
		case op2Bicc:
			cc := target.ConditionCode(getCond(word))
			disp := signExtend(word&imm22Mask, 22)
			return &ir.Instruction{Opcode: ir.OpBranch, Operands: []ir.Operand{ir.ICCOperand(cc), ir.LabelAddr(disp)}}, true, nil
		case op2Sethi:
			rd := getRd(word)
			imm := int32(word & imm22Mask)
			if rd == 0 && imm == 0 {
				return &ir.Instruction{Opcode: ir.OpNop}, true, nil
			}
			return &ir.Instruction{Opcode: ir.OpSethi, Operands: []ir.Operand{ir.Reg(rd), ir.Imm22(imm)}}, true, nil
		case op2Unimp:
			switch getRd(word) {
			case simCyclesPrint:
				return &ir.Instruction{Opcode: ir.OpCyclePrint}, true, nil
			case simCyclesClear:
				return &ir.Instruction{Opcode: ir.OpCycleClear}, true, nil
			}
			return nil, false, nil
		}
		return nil, false, nil

	case fmtOther:
		op3 := getOp3(word)
		switch op3 {
		case op3RDY:
			return &ir.Instruction{Opcode: ir.OpRd, Operands: []ir.Operand{ir.Reg(getRd(word)), ir.Reg(target.YRegisterNo)}}, true, nil
		case op3WRY:
			return &ir.Instruction{Opcode: ir.OpWr, Operands: []ir.Operand{ir.Reg(target.YRegisterNo), ir.Reg(getRs1(word)), decodeReg2OrImm(word)}}, true, nil
		}
		if opc, found := arithOp3Rev[op3]; found {
			return &ir.Instruction{Opcode: opc, Operands: []ir.Operand{ir.Reg(getRd(word)), ir.Reg(getRs1(word)), decodeReg2OrImm(word)}}, true, nil
		}
		return nil, false, nil

	case fmtMem:
		op3 := getOp3(word)
		if opc, found := memOp3Rev[op3]; found {
			return &ir.Instruction{Opcode: opc, Operands: []ir.Operand{ir.Reg(getRd(word)), ir.Reg(getRs1(word)), decodeReg2OrImm(word)}}, true, nil
		}
		return nil, false, nil
	}

	return nil, false, nil
}
