package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// v8BlockICCMovCC adds hardware loops, ICC-gated predicated blocks, and
// MOVcc to the base ISA.
type v8BlockICCMovCC struct{}

// NewV8BlockICCMovCC returns the v8-blockicc-movcc target, target-ID 0x0002.
func NewV8BlockICCMovCC() Target { return v8BlockICCMovCC{} }

func (v8BlockICCMovCC) ID() target.ID   { return target.IDBlockICCMovCC }
func (v8BlockICCMovCC) Name() string    { return target.V8BlockICCMovCC.Name }
func (v8BlockICCMovCC) Capabilities() target.Capabilities {
	return target.V8BlockICCMovCC.Capabilities
}

func (v v8BlockICCMovCC) Encode(inst *ir.Instruction) (uint32, error) {
	if word, ok, err := encodeBase(inst); ok {
		return word, err
	}
	if word, ok, err := encodeHWLoop(inst); ok {
		return word, err
	}
	if word, ok, err := encodePredCC(inst); ok {
		return word, err
	}
	if word, ok, err := encodeMovCC(inst); ok {
		return word, err
	}
	return 0, &CapabilityError{Target: v.Name(), Opcode: inst.Opcode}
}

func (v v8BlockICCMovCC) Decode(word uint32) (*ir.Instruction, error) {
	if inst, ok, err := decodeBase(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeHWLoop(word); ok {
		return inst, err
	}
	if inst, ok, err := decodePredCC(word); ok {
		return inst, err
	}
	if inst, ok, err := decodeMovCC(word); ok {
		return inst, err
	}
	return nil, &CapabilityError{Target: v.Name(), Opcode: ir.OpUnknown}
}
