package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// v8BlockICCSelCC adds hardware loops, ICC-gated predicated blocks, and
// SELcc to the base ISA (original_source/include/sparc_v8-blockicc-selcc.h,
// target-ID 0x0003).
type v8BlockICCSelCC struct{}

// NewV8BlockICCSelCC returns the v8-blockicc-selcc target.
func NewV8BlockICCSelCC() Target { return v8BlockICCSelCC{} }

func (v8BlockICCSelCC) ID() target.ID { return target.IDBlockICCSelCC }
func (v8BlockICCSelCC) Name() string  { return target.V8BlockICCSelCC.Name }
func (v8BlockICCSelCC) Capabilities() target.Capabilities {
	return target.V8BlockICCSelCC.Capabilities
}

func (v v8BlockICCSelCC) Encode(inst *ir.Instruction) (uint32, error) {
	if word, ok, err := encodeBase(inst); ok {
		return word, err
	}
	if word, ok, err := encodeHWLoop(inst); ok {
		return word, err
	}
	if word, ok, err := encodePredCC(inst); ok {
		return word, err
	}
	if word, ok, err := encodeSelCC(inst); ok {
		return word, err
	}
	return 0, &CapabilityError{Target: v.Name(), Opcode: inst.Opcode}
}

func (v v8BlockICCSelCC) Decode(word uint32) (*ir.Instruction, error) {
	if inst, ok, err := decodeBase(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeHWLoop(word); ok {
		return inst, err
	}
	if inst, ok, err := decodePredCC(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeSelCC(word); ok {
		return inst, err
	}
	return nil, &CapabilityError{Target: v.Name(), Opcode: ir.OpUnknown}
}
