// Package encoding implements the target encoders and decoders: given an
// IR instruction, produce the 4-byte big-endian SPARC-V8 word for a given
// target variant, and the inverse. The generic (base-ISA) encode/decode
// logic in base.go is shared by every variant; each variant file (v8.go,
// v8_blockicc_movcc.go, v8_blockicc_selcc.go, v8_blockpreg_selcc.go)
// chooses which extension encoders/decoders it tries after the base ones,
// and the bit-field layouts of those extensions live in the ext_*.go files.
// The base logic never inspects those layouts.
package encoding

import (
	"fmt"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Target is the pluggable per-variant encode/decode/describe contract,
// bound once at startup from a target selector.
type Target interface {
	ID() target.ID
	Name() string
	Capabilities() target.Capabilities
	Encode(inst *ir.Instruction) (uint32, error)
	Decode(word uint32) (*ir.Instruction, error)
}

// ByName resolves a Target implementation from a CLI selector string
// ("v8", "v8-blockicc-movcc", "v8-blockpreg-selcc", "v8-blockicc-selcc").
func ByName(name string) (Target, error) {
	switch name {
	case "v8":
		return NewV8(), nil
	case "v8-blockicc-movcc":
		return NewV8BlockICCMovCC(), nil
	case "v8-blockicc-selcc":
		return NewV8BlockICCSelCC(), nil
	case "v8-blockpreg-selcc":
		return NewV8BlockPRegSelCC(), nil
	default:
		return nil, fmt.Errorf("encoding: unknown target %q", name)
	}
}

// ByID resolves a Target implementation from an on-disk target-ID, used by
// the simulator loader to check a binary's header.
func ByID(id target.ID) (Target, error) {
	switch id {
	case target.IDBase:
		return NewV8(), nil
	case target.IDBlockICCMovCC:
		return NewV8BlockICCMovCC(), nil
	case target.IDBlockICCSelCC:
		return NewV8BlockICCSelCC(), nil
	case target.IDBlockPRegSelCC:
		return NewV8BlockPRegSelCC(), nil
	default:
		return nil, fmt.Errorf("encoding: unknown target id 0x%04x", uint16(id))
	}
}

// CapabilityError reports that a target variant was asked to encode an
// instruction outside its capability vector.
type CapabilityError struct {
	Target string
	Opcode ir.Opcode
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("encoding: target %s does not support opcode %d", e.Target, e.Opcode)
}
