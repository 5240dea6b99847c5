package sim

import "github.com/cbgeyer/sparc-ext-sim/target"

// predRegs packs 16 (t,f) predicate-register pairs into a single 32-bit
// word, 2 bits per register: bit 2n is the true half, bit 2n+1 the false
// half. This mirrors how PSR itself packs unrelated boolean state into
// one word (sim.PSR.ToUint32).
type predRegs uint32

func (p predRegs) t(n int) bool { return p&(1<<(uint(n)*2)) != 0 }
func (p predRegs) f(n int) bool { return p&(1<<(uint(n)*2+1)) != 0 }

func (p *predRegs) set(n int, t, f bool) {
	mask := predRegs(0x3) << (uint(n) * 2)
	*p &^= mask
	if t {
		*p |= 1 << (uint(n) * 2)
	}
	if f {
		*p |= 1 << (uint(n)*2 + 1)
	}
}

type predGateKind int

const (
	gateNone predGateKind = iota
	gateICC
	gatePReg
)

// predState tracks the predicate-register file plus the currently
// installed predicated-block gate, for both the ICC-gated and preg-gated
// target families. At most one gate is installed at a time; a PREDBEGIN
// inside an open block replaces the gate, matching the single
// none/by-ICC/by-PREG state the hardware models.
type predState struct {
	regs predRegs

	kind predGateKind
	icc  target.ConditionCode
	preg int
	tf   bool
}

func (p *predState) reset() {
	*p = predState{}
}

// open reports whether an ordinary instruction should commit its effects
// right now: vacuously true outside any predicated block. An ICC gate is
// re-evaluated against the live PSR on every instruction, so a cc-setting
// instruction inside the block changes the gate for the instructions
// after it.
func (p *predState) open(psr PSR) bool {
	switch p.kind {
	case gateICC:
		return psr.EvaluateICC(p.icc)
	case gatePReg:
		if p.tf {
			return p.regs.t(p.preg)
		}
		return p.regs.f(p.preg)
	default:
		return true
	}
}

func (p *predState) beginICC(cc target.ConditionCode) {
	p.kind = gateICC
	p.icc = cc
}

func (p *predState) beginPReg(n int, tf bool) {
	p.kind = gatePReg
	p.preg = n
	p.tf = tf
}

func (p *predState) end() {
	p.kind = gateNone
}
