// Package diag formats simulator and assembler state for human consumption:
// disassembly, memory/register dumps, and cycle summaries.
package diag

import (
	"fmt"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

var mnemonics = map[ir.Opcode]string{
	ir.OpNop:      "nop",
	ir.OpAdd:      "add",
	ir.OpAddCC:    "addcc",
	ir.OpAddX:     "addx",
	ir.OpAddXCC:   "addxcc",
	ir.OpTaddCC:   "taddcc",
	ir.OpSub:      "sub",
	ir.OpSubCC:    "subcc",
	ir.OpSubX:     "subx",
	ir.OpSubXCC:   "subxcc",
	ir.OpTsubCC:   "tsubcc",
	ir.OpAnd:      "and",
	ir.OpAndCC:    "andcc",
	ir.OpAndN:     "andn",
	ir.OpAndNCC:   "andncc",
	ir.OpOr:       "or",
	ir.OpOrCC:     "orcc",
	ir.OpOrN:      "orn",
	ir.OpOrNCC:    "orncc",
	ir.OpXor:      "xor",
	ir.OpXorCC:    "xorcc",
	ir.OpXnor:     "xnor",
	ir.OpXnorCC:   "xnorcc",
	ir.OpSLL:      "sll",
	ir.OpSRL:      "srl",
	ir.OpSRA:      "sra",
	ir.OpUMul:     "umul",
	ir.OpUMulCC:   "umulcc",
	ir.OpSMul:     "smul",
	ir.OpSMulCC:   "smulcc",
	ir.OpUDiv:     "udiv",
	ir.OpUDivCC:   "udivcc",
	ir.OpSDiv:     "sdiv",
	ir.OpSDivCC:   "sdivcc",
	ir.OpLDSB:     "ldsb",
	ir.OpLDSH:     "ldsh",
	ir.OpLDUB:     "ldub",
	ir.OpLDUH:     "lduh",
	ir.OpLD:       "ld",
	ir.OpLDD:      "ldd",
	ir.OpSTB:      "stb",
	ir.OpSTH:      "sth",
	ir.OpST:       "st",
	ir.OpSTD:      "std",
	ir.OpLdstub:   "ldstub",
	ir.OpSwap:     "swap",
	ir.OpSave:     "save",
	ir.OpRestore:  "restore",
	ir.OpJumpl:    "jumpl",
	ir.OpCall:     "call",
	ir.OpBranch:   "b",
	ir.OpSethi:    "sethi",
	ir.OpRd:       "rd",
	ir.OpWr:       "wr",
	ir.OpHWLoopInit:  "hwloopinit",
	ir.OpHWLoopStart: "hwloopstart",
	ir.OpPredBegin:   "predbegin",
	ir.OpPredEnd:     "predend",
	ir.OpPredSet:     "predset",
	ir.OpPredClear:   "predclear",
	ir.OpMovCC:       "mov",
	ir.OpSel:         "sel",
	ir.OpCyclePrint:  "sim-printcycles",
	ir.OpCycleClear:  "sim-clearcycles",
}

var ccSuffix = map[target.ConditionCode]string{
	target.CCN: "n", target.CCE: "e", target.CCLE: "le", target.CCL: "l",
	target.CCLEU: "leu", target.CCCS: "cs", target.CCNEG: "neg", target.CCVS: "vs",
	target.CCA: "a", target.CCNE: "ne", target.CCG: "g", target.CCGE: "ge",
	target.CCGU: "gu", target.CCCC: "cc", target.CCPOS: "pos", target.CCVC: "vc",
}

// Disassemble renders a decoded instruction as assembly text: mnemonic
// (folding branch condition codes and attached predicates into the
// mnemonic, the way the original printed them) followed by its operands.
func Disassemble(inst *ir.Instruction) string {
	name := mnemonics[inst.Opcode]
	if name == "" {
		name = fmt.Sprintf("unknown(%d)", inst.Opcode)
	}
	if inst.Opcode == ir.OpBranch && len(inst.Operands) > 0 {
		name = "b" + ccSuffix[inst.Operands[0].ICC]
	}
	if inst.PredKind != ir.PredNone {
		name += predSuffix(inst)
	}

	ops := formatOperands(inst)
	if ops == "" {
		return name
	}
	return name + " " + ops
}

func predSuffix(inst *ir.Instruction) string {
	if inst.PredKind == ir.PredByICC {
		return "," + ccSuffix[inst.PredICC]
	}
	tf := "t"
	if !inst.PredTF {
		tf = "f"
	}
	return fmt.Sprintf(",p%d%s", inst.PredPReg, tf)
}

func formatOperands(inst *ir.Instruction) string {
	var parts []string
	for i, op := range inst.Operands {
		if inst.Opcode == ir.OpBranch && i == 0 {
			continue // folded into the mnemonic
		}
		parts = append(parts, formatOperand(inst, op))
	}
	return strings.Join(parts, ", ")
}

func formatOperand(inst *ir.Instruction, op ir.Operand) string {
	switch op.Tag {
	case ir.OperandRegister:
		return regName(op.Reg)
	case ir.OperandYRegister:
		return "%y"
	case ir.OperandPReg:
		return fmt.Sprintf("%%p%d", op.Reg)
	case ir.OperandSimm13, ir.OperandSimm11, ir.OperandSimm8, ir.OperandImm22:
		return fmt.Sprintf("%d", op.Imm)
	case ir.OperandLabel, ir.OperandHiLabel, ir.OperandLowLabel:
		return op.Label
	case ir.OperandLabelAddress:
		return fmt.Sprintf("0x%x", inst.InstrNo+uint32(op.Imm))
	case ir.OperandICC:
		return ccSuffix[op.ICC]
	case ir.OperandLoopReg:
		switch op.LoopReg {
		case ir.LoopRegStart:
			return "start"
		case ir.LoopRegEnd:
			return "end"
		default:
			return "bound"
		}
	case ir.OperandTF:
		if op.TF {
			return "t"
		}
		return "f"
	default:
		return "?"
	}
}

func regName(n int) string {
	switch {
	case n == target.YRegisterNo:
		return "%y"
	case n >= target.IReg:
		return fmt.Sprintf("%%i%d", n-target.IReg)
	case n >= target.LReg:
		return fmt.Sprintf("%%l%d", n-target.LReg)
	case n >= target.OReg:
		return fmt.Sprintf("%%o%d", n-target.OReg)
	default:
		return fmt.Sprintf("%%g%d", n-target.GReg)
	}
}
