package sim

import "github.com/cbgeyer/sparc-ext-sim/target"

// windowRegs holds one window's locals (index 0-7) and outs (index 8-15).
// A window's ins are the outs of the next-higher window, mirroring real
// SPARC overlap and avoiding a separate copy on SAVE.
type windowRegs [16]uint32

// Registers implements the windowed SPARC register file: 8 globals
// shared by every window, plus one windowRegs per window, addressed
// through the current CWP.
type Registers struct {
	globals [8]uint32
	windows [target.NWindows]windowRegs
	cwp     int
}

// NewRegisters returns a zeroed register file with CWP at the top window.
func NewRegisters() *Registers {
	r := &Registers{}
	r.Reset()
	return r
}

// Reset zeroes every register and returns CWP to the top window.
func (r *Registers) Reset() {
	*r = Registers{cwp: target.NWindows - 1}
}

// CWP returns the current window pointer.
func (r *Registers) CWP() int { return r.cwp }

// Read returns the value of register n (0-31, target register class
// numbering: GReg/OReg/LReg/IReg). %g0 always reads zero.
func (r *Registers) Read(n int) uint32 {
	switch {
	case n < target.OReg:
		return r.globals[n]
	case n < target.LReg:
		return r.windows[r.cwp][8+(n-target.OReg)]
	case n < target.IReg:
		return r.windows[r.cwp][n-target.LReg]
	default:
		next := (r.cwp + 1) % target.NWindows
		return r.windows[next][8+(n-target.IReg)]
	}
}

// Write stores v into register n; writes to %g0 are discarded.
func (r *Registers) Write(n int, v uint32) {
	switch {
	case n == target.GReg:
		return
	case n < target.OReg:
		r.globals[n] = v
	case n < target.LReg:
		r.windows[r.cwp][8+(n-target.OReg)] = v
	case n < target.IReg:
		r.windows[r.cwp][n-target.LReg] = v
	default:
		next := (r.cwp + 1) % target.NWindows
		r.windows[next][8+(n-target.IReg)] = v
	}
}

// Save decrements CWP, allocating the next window: the old window's outs
// become the new window's ins.
func (r *Registers) Save() {
	r.cwp = (r.cwp - 1 + target.NWindows) % target.NWindows
}

// Restore increments CWP, returning to the caller's window.
func (r *Registers) Restore() {
	r.cwp = (r.cwp + 1) % target.NWindows
}

// PSR holds the current window pointer and the N/Z/V/C integer condition
// flags; ToUint32/FromUint32 pack them at their architectural bit
// positions.
type PSR struct {
	N, Z, V, C bool
	CWP        int
}

// ToUint32 packs the PSR at its architectural bit positions: CWP in the
// low field, flags at bits 20-23 (target.PSRBitC..PSRBitN).
func (p PSR) ToUint32() uint32 {
	var v uint32
	v |= uint32(p.CWP) & target.PSRInitMask
	if p.C {
		v |= 1 << target.PSRBitC
	}
	if p.V {
		v |= 1 << target.PSRBitV
	}
	if p.Z {
		v |= 1 << target.PSRBitZ
	}
	if p.N {
		v |= 1 << target.PSRBitN
	}
	return v
}

// FromUint32 is the inverse of ToUint32.
func (p *PSR) FromUint32(v uint32) {
	p.CWP = int(v & target.PSRInitMask)
	p.C = v&(1<<target.PSRBitC) != 0
	p.V = v&(1<<target.PSRBitV) != 0
	p.Z = v&(1<<target.PSRBitZ) != 0
	p.N = v&(1<<target.PSRBitN) != 0
}

// EvaluateICC reports whether the given condition code holds against the
// current N/Z/V/C flags.
func (p PSR) EvaluateICC(cc target.ConditionCode) bool {
	switch cc {
	case target.CCN:
		return false
	case target.CCE:
		return p.Z
	case target.CCLE:
		return p.Z || (p.N != p.V)
	case target.CCL:
		return p.N != p.V
	case target.CCLEU:
		return p.C || p.Z
	case target.CCCS:
		return p.C
	case target.CCNEG:
		return p.N
	case target.CCVS:
		return p.V
	case target.CCA:
		return true
	case target.CCNE:
		return !p.Z
	case target.CCG:
		return !p.Z && (p.N == p.V)
	case target.CCGE:
		return p.N == p.V
	case target.CCGU:
		return !p.C && !p.Z
	case target.CCCC:
		return !p.C
	case target.CCPOS:
		return !p.N
	case target.CCVC:
		return !p.V
	}
	return false
}
