// Package asm implements the assembler core:
// accumulation of instructions/data/labels during parsing, label
// resolution, and big-endian emission of the binary artifact. It is driven
// by a frontend (package parsefe, or any other caller) through the
// save_*-shaped methods below; it has no knowledge of source text.
package asm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Assembler accumulates a program and resolves/emits it. The zero value is
// not usable; use New.
type Assembler struct {
	instructions []*ir.Instruction
	data         []*ir.DataWord
	labels       map[string]ir.Label
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{
		labels: make(map[string]ir.Label),
	}
}

// SaveLabel inserts a label into the label table. addr is an instruction
// index when isText is true, otherwise a data-segment byte offset.
// Duplicate names are a hard error.
func (a *Assembler) SaveLabel(addr uint32, name string, isText bool) error {
	if _, exists := a.labels[name]; exists {
		return newError(ErrDuplicateLabel, addr, name, "duplicate label")
	}
	a.labels[name] = ir.Label{Name: name, Address: addr, IsInText: isText}
	return nil
}

// SaveData appends a resolved data word at the given data-segment offset.
func (a *Assembler) SaveData(offset uint32, value uint32, width int) {
	a.data = append(a.data, &ir.DataWord{Offset: offset, Value: value, Width: width})
}

// SaveDataLabel appends a data word whose value is an as-yet-unresolved
// label address, defaulting to 4-byte width.
func (a *Assembler) SaveDataLabel(offset uint32, name string, width int) {
	if width == 0 {
		width = 4
	}
	a.data = append(a.data, &ir.DataWord{Offset: offset, Label: name, HasLabel: true, Width: width})
}

// emit appends inst (with InstrNo already set by the caller) and returns it
// so shape-specific Save* wrappers can finish filling it in.
func (a *Assembler) emit(instrNo uint32, op ir.Opcode, operands ...ir.Operand) *ir.Instruction {
	inst := &ir.Instruction{Opcode: op, InstrNo: instrNo, Operands: operands}
	a.instructions = append(a.instructions, inst)
	return inst
}

// SaveBranchInstr records a Bicc instruction: branch-target label, 4-bit icc.
func (a *Assembler) SaveBranchInstr(instrNo uint32, icc target.ConditionCode, label string) {
	a.emit(instrNo, ir.OpBranch, ir.ICCOperand(icc), ir.LabelRef(label))
}

// SaveCallInstr records a CALL instruction: call-target label.
func (a *Assembler) SaveCallInstr(instrNo uint32, label string) {
	a.emit(instrNo, ir.OpCall, ir.LabelRef(label))
}

// SaveRegRegInstr records a dst,src1,src2 register-shape arithmetic/logic
// instruction (e.g. ADD %r1,%r2,%r3).
func (a *Assembler) SaveRegRegInstr(instrNo uint32, op ir.Opcode, dst, src1, src2 int) *ir.Instruction {
	return a.emit(instrNo, op, ir.Reg(dst), ir.Reg(src1), ir.Reg(src2))
}

// SaveRegImmInstr records a dst,src1,simm13 immediate-shape arithmetic/logic
// instruction.
func (a *Assembler) SaveRegImmInstr(instrNo uint32, op ir.Opcode, dst, src1 int, imm int32) *ir.Instruction {
	return a.emit(instrNo, op, ir.Reg(dst), ir.Reg(src1), ir.Imm13(imm))
}

// SaveRegLabelInstr records a dst,src1,label instruction whose label
// resolves to the address's low 10 bits (OPERAND_TYPE_LOW_LABEL), e.g.
// `ADD %r1, LOW(label), %r2`.
func (a *Assembler) SaveRegLabelInstr(instrNo uint32, op ir.Opcode, dst, src1 int, label string) *ir.Instruction {
	return a.emit(instrNo, op, ir.Reg(dst), ir.Reg(src1), ir.LowLabelRef(label))
}

// SaveSethiInstr records a SETHI dst,imm22 instruction; imm22==0 and
// dst==0 is the canonical NOP encoding.
func (a *Assembler) SaveSethiInstr(instrNo uint32, dst int, imm22 int32) *ir.Instruction {
	if dst == 0 && imm22 == 0 {
		return a.emit(instrNo, ir.OpNop)
	}
	return a.emit(instrNo, ir.OpSethi, ir.Reg(dst), ir.Imm22(imm22))
}

// SaveSethiLabelInstr records a SETHI dst,HI(label) instruction; the label
// resolves to the address's top 22 bits (OPERAND_TYPE_HI_LABEL).
func (a *Assembler) SaveSethiLabelInstr(instrNo uint32, dst int, label string) *ir.Instruction {
	return a.emit(instrNo, ir.OpSethi, ir.Reg(dst), ir.HiLabelRef(label))
}

// SaveAddrInstr records a load/store instruction: dst (or store source)
// register, opcode, and an address made of a base register plus either an
// index register or a simm13 displacement.
func (a *Assembler) SaveAddrInstr(instrNo uint32, op ir.Opcode, dst int, base int, offset ir.Operand) *ir.Instruction {
	return a.emit(instrNo, op, ir.Reg(dst), ir.Reg(base), offset)
}

// SaveRdInstr records `RD %y, dst`.
func (a *Assembler) SaveRdInstr(instrNo uint32, dst, src int) *ir.Instruction {
	return a.emit(instrNo, ir.OpRd, ir.Reg(dst), ir.Reg(src))
}

// SaveWrInstr records `WR src1, src2, %y`.
func (a *Assembler) SaveWrInstr(instrNo uint32, dst, src1, src2 int) *ir.Instruction {
	return a.emit(instrNo, ir.OpWr, ir.Reg(dst), ir.Reg(src1), ir.Reg(src2))
}

// SaveSaveRestoreInstr records SAVE/RESTORE, which share the reg,reg,reg|
// simm13 shape of ordinary arithmetic.
func (a *Assembler) SaveSaveRestoreInstr(instrNo uint32, op ir.Opcode, dst, src1 int, src2 ir.Operand) *ir.Instruction {
	return a.emit(instrNo, op, ir.Reg(dst), ir.Reg(src1), src2)
}

// SaveJumplInstr records JUMPL dst(link),src1,src2|simm13.
func (a *Assembler) SaveJumplInstr(instrNo uint32, dst, src1 int, src2 ir.Operand) *ir.Instruction {
	return a.emit(instrNo, ir.OpJumpl, ir.Reg(dst), ir.Reg(src1), src2)
}

// SaveMovCCInstr records MOVcc dst,src1,icc (MOVcc target variant only).
func (a *Assembler) SaveMovCCInstr(instrNo uint32, dst, src1 int, icc target.ConditionCode) *ir.Instruction {
	return a.emit(instrNo, ir.OpMovCC, ir.Reg(dst), ir.Reg(src1), ir.ICCOperand(icc))
}

// SaveSelCCRegRegInstr records SELcc dst,src1(reg),src2(reg),icc.
func (a *Assembler) SaveSelCCRegRegInstr(instrNo uint32, dst, src1, src2 int, icc target.ConditionCode) *ir.Instruction {
	return a.emit(instrNo, ir.OpSel, ir.Reg(dst), ir.Reg(src1), ir.Reg(src2), ir.ICCOperand(icc))
}

// SaveSelCCRegImmInstr records SELcc dst,src1(reg),src2(simm11),icc.
func (a *Assembler) SaveSelCCRegImmInstr(instrNo uint32, dst, src1 int, imm11 int32, icc target.ConditionCode) *ir.Instruction {
	return a.emit(instrNo, ir.OpSel, ir.Reg(dst), ir.Reg(src1), ir.Imm11(imm11), ir.ICCOperand(icc))
}

// SaveSelCCImmImmInstr records SELcc dst,src1(simm8),src2(simm8),icc.
func (a *Assembler) SaveSelCCImmImmInstr(instrNo uint32, dst int, imm1, imm2 int32, icc target.ConditionCode) *ir.Instruction {
	return a.emit(instrNo, ir.OpSel, ir.Reg(dst), ir.Imm8(imm1), ir.Imm8(imm2), ir.ICCOperand(icc))
}

// SaveHWLoopStartInstr records the zero-operand HWLOOP start instruction.
func (a *Assembler) SaveHWLoopStartInstr(instrNo uint32) *ir.Instruction {
	return a.emit(instrNo, ir.OpHWLoopStart)
}

// SaveHWLoopInitRegInstr records the register-operand form, e.g.
// `hwloop.init bound, %reg`; the label form is SaveHWLoopInitLabelInstr.
func (a *Assembler) SaveHWLoopInitRegInstr(instrNo uint32, sel ir.LoopReg, src int) *ir.Instruction {
	return a.emit(instrNo, ir.OpHWLoopInit, ir.LoopRegOperand(sel), ir.Reg(src))
}

// SaveHWLoopInitLabelInstr records `hwloop.init start|end, label`.
func (a *Assembler) SaveHWLoopInitLabelInstr(instrNo uint32, sel ir.LoopReg, label string) *ir.Instruction {
	return a.emit(instrNo, ir.OpHWLoopInit, ir.LoopRegOperand(sel), ir.LabelRef(label))
}

// SaveHWLoopInitImmInstr records `hwloop.init bound, imm22`.
func (a *Assembler) SaveHWLoopInitImmInstr(instrNo uint32, sel ir.LoopReg, imm22 int32) *ir.Instruction {
	return a.emit(instrNo, ir.OpHWLoopInit, ir.LoopRegOperand(sel), ir.Imm22(imm22))
}

// SavePredBeginInstr records `predbegin %pN, t|f` (PREG-predicated target).
func (a *Assembler) SavePredBeginInstr(instrNo uint32, preg int, tf bool) *ir.Instruction {
	return a.emit(instrNo, ir.OpPredBegin, ir.PReg(preg), ir.TFOperand(tf))
}

// SavePredBeginICCInstr records `predbegin icc` (ICC-predicated target).
func (a *Assembler) SavePredBeginICCInstr(instrNo uint32, icc target.ConditionCode) *ir.Instruction {
	return a.emit(instrNo, ir.OpPredBegin, ir.ICCOperand(icc))
}

// SavePredEndInstr records the zero-operand PREDEND instruction.
func (a *Assembler) SavePredEndInstr(instrNo uint32) *ir.Instruction {
	return a.emit(instrNo, ir.OpPredEnd)
}

// SavePredSetInstr records `predset %pN[, icc]`; icc defaults to "always"
// (CCA) when absent, matching the original's unconditional-set behavior.
func (a *Assembler) SavePredSetInstr(instrNo uint32, preg int, icc target.ConditionCode, hasICC bool) *ir.Instruction {
	if !hasICC {
		icc = target.CCA
	}
	return a.emit(instrNo, ir.OpPredSet, ir.PReg(preg), ir.ICCOperand(icc))
}

// SavePredClearInstr records `predclear %pN`, the "predset with CC_N"
// special case from shared/libasm_sparc_v8-blockpreg-selcc.c.
func (a *Assembler) SavePredClearInstr(instrNo uint32, preg int) *ir.Instruction {
	return a.emit(instrNo, ir.OpPredClear, ir.PReg(preg), ir.ICCOperand(target.CCN))
}

// SaveSimCyclesInstr records the `sim-printcycles`/`sim-clearcycles`
// zero-operand intrinsics.
func (a *Assembler) SaveSimCyclesInstr(instrNo uint32, print bool) *ir.Instruction {
	if print {
		return a.emit(instrNo, ir.OpCyclePrint)
	}
	return a.emit(instrNo, ir.OpCycleClear)
}

// AddICCPredicate attaches an integer-condition-code predicate to the
// instruction recorded immediately before; instrNo must equal that
// instruction's index.
func (a *Assembler) AddICCPredicate(instrNo uint32, icc target.ConditionCode) error {
	inst, err := a.lastInstruction(instrNo)
	if err != nil {
		return err
	}
	inst.PredKind = ir.PredByICC
	inst.PredICC = icc
	return nil
}

// AddPRegPredicate attaches a predicate-register predicate to the
// instruction recorded immediately before.
func (a *Assembler) AddPRegPredicate(instrNo uint32, preg int, tf bool) error {
	inst, err := a.lastInstruction(instrNo)
	if err != nil {
		return err
	}
	inst.PredKind = ir.PredByPReg
	inst.PredPReg = preg
	inst.PredTF = tf
	return nil
}

func (a *Assembler) lastInstruction(instrNo uint32) (*ir.Instruction, error) {
	if len(a.instructions) == 0 {
		return nil, newError(ErrPredicateMismatch, instrNo, "", "no instruction recorded yet")
	}
	last := a.instructions[len(a.instructions)-1]
	if last.InstrNo != instrNo {
		return nil, newError(ErrPredicateMismatch, instrNo, "", "predicate does not target the last recorded instruction")
	}
	return last, nil
}

// CheckLabels performs the single label-resolution pass: every plain
// label operand becomes a resolved instruction index, every hi-label
// operand becomes the top 22 bits of the resolved byte address, and every
// low-label operand becomes the bottom 10 bits. Unresolved labels are
// fatal.
func (a *Assembler) CheckLabels() error {
	for _, inst := range a.instructions {
		for i, op := range inst.Operands {
			switch op.Tag {
			case ir.OperandLabel:
				lbl, ok := a.labels[op.Label]
				if !ok {
					return newError(ErrUnresolvedLabel, inst.InstrNo, op.Label, "unresolved label")
				}
				inst.Operands[i] = ir.LabelAddr(int32(lbl.Address))
			case ir.OperandHiLabel:
				lbl, ok := a.labels[op.Label]
				if !ok {
					return newError(ErrUnresolvedLabel, inst.InstrNo, op.Label, "unresolved label")
				}
				inst.Operands[i] = ir.Imm22(int32(lbl.Address >> 10))
			case ir.OperandLowLabel:
				lbl, ok := a.labels[op.Label]
				if !ok {
					return newError(ErrUnresolvedLabel, inst.InstrNo, op.Label, "unresolved label")
				}
				inst.Operands[i] = ir.Imm13(int32(lbl.Address & 0x3FF))
			}
		}
	}
	for _, d := range a.data {
		if d.HasLabel {
			lbl, ok := a.labels[d.Label]
			if !ok {
				return newError(ErrUnresolvedLabel, 0, d.Label, "unresolved data label")
			}
			d.Value = lbl.Address
			d.HasLabel = false
		}
	}
	return nil
}

// Encoder is the subset of the encoding package's Target interface the
// assembler core needs to emit instructions; kept local to avoid an
// import cycle (encoding never needs to import asm).
type Encoder interface {
	Encode(inst *ir.Instruction) (uint32, error)
}

// EmitData writes the data segment: dataSize bytes, gaps zero-filled,
// each DataWord written at its byte offset in its declared width,
// big-endian.
func (a *Assembler) EmitData(w io.Writer, dataSize uint32) error {
	buf := make([]byte, dataSize)
	for _, d := range a.data {
		if d.HasLabel {
			return newError(ErrUnresolvedLabel, 0, d.Label, "data word not resolved before emission")
		}
		end := d.Offset + uint32(d.Width)
		if end > dataSize {
			return fmt.Errorf("asm: data word at offset %d (width %d) exceeds data segment size %d", d.Offset, d.Width, dataSize)
		}
		switch d.Width {
		case 1:
			buf[d.Offset] = byte(d.Value)
		case 2:
			binary.BigEndian.PutUint16(buf[d.Offset:], uint16(d.Value))
		case 4:
			binary.BigEndian.PutUint32(buf[d.Offset:], d.Value)
		default:
			return fmt.Errorf("asm: invalid data width %d", d.Width)
		}
	}
	_, err := w.Write(buf)
	return err
}

// EmitInstructions encodes every recorded instruction, in index order,
// and writes the resulting 4-byte big-endian words.
func (a *Assembler) EmitInstructions(w io.Writer, enc Encoder) error {
	for _, inst := range a.instructions {
		word, err := enc.Encode(inst)
		if err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], word)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// Instructions returns the accumulated instruction list (e.g. for
// diagnostics or length computation before CheckLabels has run).
func (a *Assembler) Instructions() []*ir.Instruction { return a.instructions }

// Data returns the accumulated data word list.
func (a *Assembler) Data() []*ir.DataWord { return a.data }

// TextSize returns the size in bytes of the encoded instruction stream.
func (a *Assembler) TextSize() uint32 { return uint32(len(a.instructions)) * 4 }

// DataSize returns the byte offset one past the end of the highest data
// word declared so far, rounded up to a word boundary. cmd/sparcasm writes
// this value unchanged as the binary's data-segment size; the simulator
// adds its scratch space on top of it when it sizes memory.
func (a *Assembler) DataSize() uint32 {
	var max uint32
	for _, d := range a.data {
		end := d.Offset + uint32(d.Width)
		if end > max {
			max = end
		}
	}
	return (max + 3) &^ 3
}

// Label looks up a resolved label by name.
func (a *Assembler) Label(name string) (ir.Label, bool) {
	l, ok := a.labels[name]
	return l, ok
}

// Cleanup releases the assembler's accumulated state. Safe to call twice
// and safe to call after partial construction.
func (a *Assembler) Cleanup() {
	a.instructions = nil
	a.data = nil
	a.labels = nil
}
