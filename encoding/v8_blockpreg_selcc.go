package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// v8BlockPRegSelCC adds hardware loops, predicate-register-gated
// predicated blocks, and SELcc to the base ISA
// (shared/libasm_sparc_v8-blockpreg-selcc.c, target-ID 0x0004).
type v8BlockPRegSelCC struct{}

// NewV8BlockPRegSelCC returns the v8-blockpreg-selcc target.
func NewV8BlockPRegSelCC() Target { return v8BlockPRegSelCC{} }

func (v8BlockPRegSelCC) ID() target.ID { return target.IDBlockPRegSelCC }
func (v8BlockPRegSelCC) Name() string  { return target.V8BlockPRegSelCC.Name }
func (v8BlockPRegSelCC) Capabilities() target.Capabilities {
	return target.V8BlockPRegSelCC.Capabilities
}

func (v v8BlockPRegSelCC) Encode(inst *ir.Instruction) (uint32, error) {
	if word, ok, err := encodeBase(inst); ok {
		return word, err
	}
	if word, ok, err := encodeHWLoop(inst); ok {
		return word, err
	}
	if word, ok, err := encodePredReg(inst); ok {
		return word, err
	}
	if word, ok, err := encodeSelCC(inst); ok {
		return word, err
	}
	return 0, &CapabilityError{Target: v.Name(), Opcode: inst.Opcode}
}

func (v v8BlockPRegSelCC) Decode(word uint32) (*ir.Instruction, error) {
	if inst, ok, err := decodeBase(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeHWLoop(word); ok {
		return inst, err
	}
	if inst, ok, err := decodePredReg(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeSelCC(word); ok {
		return inst, err
	}
	return nil, &CapabilityError{Target: v.Name(), Opcode: ir.OpUnknown}
}
