package ir

import "github.com/cbgeyer/sparc-ext-sim/target"

// Opcode enumerates every base SPARC-V8 integer opcode this toolchain
// supports plus the extension opcodes.
type Opcode int

const (
	OpUnknown Opcode = iota
	OpNop

	// Arithmetic / logical, all reg,reg/simm13,reg shape.
	OpAdd
	OpAddCC
	OpAddX
	OpAddXCC
	OpTaddCC
	OpSub
	OpSubCC
	OpSubX
	OpSubXCC
	OpTsubCC
	OpAnd
	OpAndCC
	OpAndN
	OpAndNCC
	OpOr
	OpOrCC
	OpOrN
	OpOrNCC
	OpXor
	OpXorCC
	OpXnor
	OpXnorCC
	OpSLL
	OpSRL
	OpSRA

	// Multiply / divide.
	OpUMul
	OpUMulCC
	OpSMul
	OpSMulCC
	OpUDiv
	OpUDivCC
	OpSDiv
	OpSDivCC

	// Memory.
	OpLDSB
	OpLDSH
	OpLDUB
	OpLDUH
	OpLD
	OpLDD
	OpSTB
	OpSTH
	OpST
	OpSTD
	OpLdstub
	OpSwap

	// Control flow / window.
	OpSave
	OpRestore
	OpJumpl
	OpCall
	OpBranch
	OpSethi

	// Y register.
	OpRd
	OpWr

	// Extension: hardware-managed counted loops.
	OpHWLoopInit
	OpHWLoopStart

	// Extension: predicated blocks / predicate register.
	OpPredBegin
	OpPredEnd
	OpPredSet
	OpPredClear

	// Extension: conditional move / select.
	OpMovCC
	OpSel

	// Simulator intrinsics.
	OpCyclePrint
	OpCycleClear
)

// Instruction is the language-neutral instruction record shared by the
// assembler core, every target encoder/decoder, the simulator, and the
// diagnostic printer.
type Instruction struct {
	Opcode   Opcode
	InstrNo  uint32 // zero-based instruction index within the text segment
	Operands []Operand

	// Predicate attached via AddICCPredicate/AddPRegPredicate.
	// PredKind == PredNone unless a predicate was attached to this
	// instruction specifically (distinct from the PREDBEGIN/PREDEND block
	// predication state the simulator tracks at runtime).
	PredKind PredKind
	PredICC  target.ConditionCode
	PredPReg int
	PredTF   bool
}

// PredKind distinguishes an instruction-level predicate attachment.
type PredKind int

const (
	PredNone PredKind = iota
	PredByICC
	PredByPReg
)
