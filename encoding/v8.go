package encoding

import (
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// v8 is the base target: no extension capabilities at all.
type v8 struct{}

// NewV8 returns the base SPARC-V8 target, target-ID 0x0001.
func NewV8() Target { return v8{} }

func (v8) ID() target.ID                     { return target.IDBase }
func (v8) Name() string                      { return target.V8.Name }
func (v8) Capabilities() target.Capabilities { return target.V8.Capabilities }

func (v v8) Encode(inst *ir.Instruction) (uint32, error) {
	if word, ok, err := encodeBase(inst); ok {
		return word, err
	}
	return 0, &CapabilityError{Target: v.Name(), Opcode: inst.Opcode}
}

func (v v8) Decode(word uint32) (*ir.Instruction, error) {
	if inst, ok, err := decodeBase(word); ok {
		return inst, err
	}
	return nil, &CapabilityError{Target: v.Name(), Opcode: ir.OpUnknown}
}
