// Package ir defines the language-neutral instruction/data/label records
// that form the contract boundary between the assembler core, the target
// encoders/decoders, and the simulator.
package ir

import "github.com/cbgeyer/sparc-ext-sim/target"

// OperandTag is the tag half of a tagged Operand value.
type OperandTag int

const (
	OperandRegister OperandTag = iota
	OperandYRegister
	OperandPReg
	OperandSimm13
	OperandSimm11
	OperandSimm8
	OperandImm22 // may hold a signed or unsigned value depending on opcode
	OperandLabel
	OperandHiLabel
	OperandLowLabel
	OperandLabelAddress
	OperandICC
	OperandLoopReg
	OperandTF
)

// LoopReg selects which hardware-loop register an HWLOOP_INIT targets.
type LoopReg int

const (
	LoopRegStart LoopReg = iota
	LoopRegEnd
	LoopRegBound
)

// Operand is a tagged value; exactly one of the fields below is meaningful
// for a given Tag.
type Operand struct {
	Tag     OperandTag
	Reg     int                  // OperandRegister, OperandPReg (register/preg number)
	Imm     int32                // OperandSimm13/11/8/Imm22/LabelAddress (resolved address)
	Label   string               // OperandLabel/HiLabel/LowLabel (unresolved label name)
	ICC     target.ConditionCode // OperandICC
	LoopReg LoopReg              // OperandLoopReg
	TF      bool                 // OperandTF: true selects execution-on-true
}

// Reg constructs a general-register operand.
func Reg(n int) Operand { return Operand{Tag: OperandRegister, Reg: n} }

// YReg constructs the Y-register marker operand.
func YReg() Operand { return Operand{Tag: OperandYRegister} }

// PReg constructs a predicate-register operand.
func PReg(n int) Operand { return Operand{Tag: OperandPReg, Reg: n} }

// Imm13 constructs a 13-bit signed immediate operand.
func Imm13(v int32) Operand { return Operand{Tag: OperandSimm13, Imm: v} }

// Imm11 constructs an 11-bit signed immediate operand.
func Imm11(v int32) Operand { return Operand{Tag: OperandSimm11, Imm: v} }

// Imm8 constructs an 8-bit signed immediate operand.
func Imm8(v int32) Operand { return Operand{Tag: OperandSimm8, Imm: v} }

// Imm22 constructs a 22-bit immediate operand (sethi/branch).
func Imm22(v int32) Operand { return Operand{Tag: OperandImm22, Imm: v} }

// LabelRef constructs an unresolved label reference.
func LabelRef(name string) Operand { return Operand{Tag: OperandLabel, Label: name} }

// HiLabelRef constructs an unresolved high-22-bits label reference (sethi).
func HiLabelRef(name string) Operand { return Operand{Tag: OperandHiLabel, Label: name} }

// LowLabelRef constructs an unresolved low-10-bits label reference.
func LowLabelRef(name string) Operand { return Operand{Tag: OperandLowLabel, Label: name} }

// LabelAddr constructs a resolved label address operand.
func LabelAddr(addr int32) Operand { return Operand{Tag: OperandLabelAddress, Imm: addr} }

// ICCOperand constructs a condition-code operand.
func ICCOperand(cc target.ConditionCode) Operand { return Operand{Tag: OperandICC, ICC: cc} }

// LoopRegOperand constructs a hardware-loop register selector operand.
func LoopRegOperand(r LoopReg) Operand { return Operand{Tag: OperandLoopReg, LoopReg: r} }

// TFOperand constructs a predicate true/false selector operand.
func TFOperand(tf bool) Operand { return Operand{Tag: OperandTF, TF: tf} }
