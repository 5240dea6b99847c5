package sim

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cbgeyer/sparc-ext-sim/asm"
	"github.com/cbgeyer/sparc-ext-sim/encoding"
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// assembleAndLoad builds a tiny binary artifact from a fully-populated
// asm.Assembler and loads it into a fresh Machine for the given target,
// mirroring what cmd/sparcasm and cmd/sparcsim do across process
// boundaries, but in-process for testing.
func assembleAndLoad(t *testing.T, a *asm.Assembler, enc encoding.Target, dataSize uint32) *Machine {
	t.Helper()
	if err := a.CheckLabels(); err != nil {
		t.Fatalf("CheckLabels: %v", err)
	}

	var buf bytes.Buffer
	var hdr [10]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(enc.ID()))
	binary.BigEndian.PutUint32(hdr[2:6], dataSize)
	binary.BigEndian.PutUint32(hdr[6:10], a.TextSize())
	buf.Write(hdr[:])

	if err := a.EmitData(&buf, dataSize); err != nil {
		t.Fatalf("EmitData: %v", err)
	}
	if err := a.EmitInstructions(&buf, enc); err != nil {
		t.Fatalf("EmitInstructions: %v", err)
	}

	m, err := Load(&buf, enc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.Out = &bytes.Buffer{}
	return m
}

// TestBinaryGCD runs the binary-GCD algorithm (repeated halving/subtract,
// no division) over %o0=48, %o1=18 and checks %o0 holds gcd(48,18)=6 on
// halt, exercising branches, shifts, SUBCC, and sentinel termination.
func TestBinaryGCD(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const (
		rA = target.OReg + 0
		rB = target.OReg + 1
	)

	// %o0 = 48, %o1 = 18
	a.SaveRegImmInstr(0, ir.OpAdd, rA, target.GReg, 48)
	a.SaveRegImmInstr(1, ir.OpAdd, rB, target.GReg, 18)

	a.SaveLabel(2, "loop", true)
	// if o1 == 0, done
	a.SaveRegImmInstr(2, ir.OpSubCC, target.GReg+7, rB, 0)
	a.SaveBranchInstr(3, target.CCE, "done")
	// if o0 < o1, swap via o0,o1 = o1,o0 (tmp in %g2)
	a.SaveRegRegInstr(4, ir.OpSubCC, target.GReg+7, rA, rB)
	a.SaveBranchInstr(5, target.CCGE, "noswap")
	a.SaveRegRegInstr(6, ir.OpOr, target.GReg+2, rA, target.GReg)
	a.SaveRegRegInstr(7, ir.OpOr, rA, rB, target.GReg)
	a.SaveRegRegInstr(8, ir.OpOr, rB, target.GReg+2, target.GReg)

	a.SaveLabel(9, "noswap", true)
	a.SaveRegRegInstr(9, ir.OpSub, rA, rA, rB)
	a.SaveBranchInstr(10, target.CCA, "loop")
	a.SaveSethiInstr(11, 0, 0) // delay slot nop

	a.SaveLabel(12, "done", true)
	a.SaveSethiInstr(12, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(100000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rA); got != 6 {
		t.Errorf("gcd(48,18) = %d, want 6", got)
	}
}

// TestLinearSearch stores a small array in the data segment and scans for
// a key, leaving its index (or -1) in %o0; exercises loads and a
// loop-with-early-exit.
func TestLinearSearch(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const (
		rIdx   = target.OReg + 0
		rKey   = target.OReg + 1
		rElem  = target.OReg + 2
		rBase  = target.OReg + 3
		rFound = target.OReg + 4
	)
	data := []uint32{5, 9, 2, 7, 30, 11}
	key := uint32(7)
	for i, v := range data {
		a.SaveData(uint32(i*4), v, 4)
	}

	a.SaveRegImmInstr(0, ir.OpAdd, rIdx, target.GReg, 0)
	a.SaveRegImmInstr(1, ir.OpAdd, rKey, target.GReg, int32(key))
	a.SaveRegImmInstr(2, ir.OpAdd, rBase, target.GReg, 0)
	a.SaveRegImmInstr(3, ir.OpAdd, rFound, target.GReg, -1)

	a.SaveLabel(4, "scan", true)
	a.SaveRegImmInstr(4, ir.OpSubCC, target.GReg+7, rIdx, int32(len(data)))
	a.SaveBranchInstr(5, target.CCGE, "end")
	a.SaveSethiInstr(6, 0, 0) // branch slot

	a.SaveRegImmInstr(7, ir.OpSLL, target.GReg+3, rIdx, 2)
	a.SaveRegRegInstr(8, ir.OpAdd, target.GReg+3, target.GReg+3, rBase)
	a.SaveAddrInstr(9, ir.OpLD, rElem, target.GReg+3, ir.Imm13(0))

	a.SaveRegRegInstr(10, ir.OpSubCC, target.GReg+7, rElem, rKey)
	a.SaveBranchInstr(11, target.CCNE, "next")
	a.SaveSethiInstr(12, 0, 0) // branch slot
	a.SaveRegRegInstr(13, ir.OpOr, rFound, rIdx, target.GReg)
	a.SaveBranchInstr(14, target.CCA, "end")
	a.SaveSethiInstr(15, 0, 0) // branch slot

	a.SaveLabel(16, "next", true)
	a.SaveRegImmInstr(16, ir.OpAdd, rIdx, rIdx, 1)
	a.SaveBranchInstr(17, target.CCA, "scan")
	a.SaveSethiInstr(18, 0, 0) // branch slot

	a.SaveLabel(19, "end", true)
	a.SaveSethiInstr(19, 0, 0)

	m := assembleAndLoad(t, a, enc, uint32(len(data)*4))
	if err := m.Run(100000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rFound); got != 3 {
		t.Errorf("index of key %d = %d, want 3", key, got)
	}
}

// TestPredicatedBlockSuppression checks that instructions inside a closed
// PREDBEGIN/PREDEND block leave no observable trace beyond cycle/PC
// advance.
func TestPredicatedBlockSuppression(t *testing.T) {
	a := asm.New()
	enc, err := encoding.ByName("v8-blockicc-selcc")
	if err != nil {
		t.Fatal(err)
	}

	const rX = target.OReg + 0
	a.SaveRegImmInstr(0, ir.OpAdd, rX, target.GReg, 1)
	a.SaveRegImmInstr(1, ir.OpSubCC, target.GReg+7, rX, 1) // Z set (x==1)
	a.SavePredBeginICCInstr(2, target.CCNE)                // gate closed: Z is set so CCNE is false
	a.SaveRegImmInstr(3, ir.OpAdd, rX, rX, 100)
	a.SavePredEndInstr(4)
	a.SaveRegImmInstr(5, ir.OpAdd, target.GReg+1, target.GReg, 0)

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rX); got != 1 {
		t.Errorf("%%o0 = %d after closed predicated block, want unchanged 1", got)
	}
}

// TestUnalignedWordLoadFaults checks that a word load from an address that
// isn't a multiple of 4 halts the machine with FaultUnalignedAccess instead
// of silently rounding the address down.
func TestUnalignedWordLoadFaults(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const rBase = target.OReg + 0
	const rDst = target.OReg + 1
	a.SaveData(0, 0xaaaaaaaa, 4)
	a.SaveData(4, 0xbbbbbbbb, 4)

	a.SaveRegImmInstr(0, ir.OpAdd, rBase, target.GReg, 0)
	a.SaveAddrInstr(1, ir.OpLD, rDst, rBase, ir.Imm13(1)) // addr=1, not 4-aligned

	m := assembleAndLoad(t, a, enc, 8)
	if err := m.Run(1000); err == nil {
		t.Fatal("Run: want fault on unaligned word load, got nil error")
	}
	if m.LastFault == nil || m.LastFault.Kind != FaultUnalignedAccess {
		t.Fatalf("LastFault = %+v, want Kind=FaultUnalignedAccess", m.LastFault)
	}
}

// TestUnalignedHalfwordStoreFaults is the STH counterpart of
// TestUnalignedWordLoadFaults.
func TestUnalignedHalfwordStoreFaults(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const rBase = target.OReg + 0
	const rVal = target.OReg + 1
	a.SaveRegImmInstr(0, ir.OpAdd, rBase, target.GReg, 0)
	a.SaveRegImmInstr(1, ir.OpAdd, rVal, target.GReg, 42)
	a.SaveAddrInstr(2, ir.OpSTH, rVal, rBase, ir.Imm13(1)) // addr=1, not 2-aligned

	m := assembleAndLoad(t, a, enc, 8)
	if err := m.Run(1000); err == nil {
		t.Fatal("Run: want fault on unaligned halfword store, got nil error")
	}
	if m.LastFault == nil || m.LastFault.Kind != FaultUnalignedAccess {
		t.Fatalf("LastFault = %+v, want Kind=FaultUnalignedAccess", m.LastFault)
	}
}

// TestHWLoopBodyRunsBoundTimes arms a two-instruction hardware loop with a
// bound of 3 and checks both body instructions execute exactly three times
// with no explicit branch in the program.
func TestHWLoopBodyRunsBoundTimes(t *testing.T) {
	a := asm.New()
	enc, err := encoding.ByName("v8-blockicc-selcc")
	if err != nil {
		t.Fatal(err)
	}

	const (
		rA = target.OReg + 0
		rB = target.OReg + 1
	)
	a.SaveHWLoopInitLabelInstr(0, ir.LoopRegStart, "body")
	a.SaveHWLoopInitLabelInstr(1, ir.LoopRegEnd, "after")
	a.SaveHWLoopInitImmInstr(2, ir.LoopRegBound, 3)
	a.SaveHWLoopStartInstr(3)
	a.SaveLabel(4, "body", true)
	a.SaveRegImmInstr(4, ir.OpAdd, rA, rA, 1)
	a.SaveRegImmInstr(5, ir.OpAdd, rB, rB, 1)
	a.SaveLabel(6, "after", true)
	a.SaveSethiInstr(6, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rA); got != 3 {
		t.Errorf("first body instruction ran %d times, want 3", got)
	}
	if got := m.Regs.Read(rB); got != 3 {
		t.Errorf("second body instruction ran %d times, want 3", got)
	}
}

// TestPredRegSetBlockGating drives the predicate-register target end to
// end: an unconditional predset opens a t-gated block, predclear closes
// it, and a predset inside the closed block is itself suppressed.
func TestPredRegSetBlockGating(t *testing.T) {
	a := asm.New()
	enc, err := encoding.ByName("v8-blockpreg-selcc")
	if err != nil {
		t.Fatal(err)
	}

	const rX = target.OReg + 0
	a.SavePredSetInstr(0, 1, target.CCA, false)
	a.SavePredBeginInstr(1, 1, true)
	a.SaveRegImmInstr(2, ir.OpAdd, rX, target.GReg, 5) // commits: %p1.t is set
	a.SavePredEndInstr(3)
	a.SavePredClearInstr(4, 1)
	a.SavePredBeginInstr(5, 1, true)
	a.SaveRegImmInstr(6, ir.OpAdd, rX, target.GReg, 99) // suppressed
	a.SavePredSetInstr(7, 2, target.CCA, false)         // suppressed too
	a.SavePredEndInstr(8)
	a.SavePredBeginInstr(9, 2, true)
	a.SaveRegImmInstr(10, ir.OpAdd, rX, rX, 1) // %p2 never set, suppressed
	a.SavePredEndInstr(11)
	a.SaveSethiInstr(12, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rX); got != 5 {
		t.Errorf("%%o0 = %d, want 5 (only the open block's add commits)", got)
	}
}

// TestSelCCPicksBySign checks both arms of a conditional select against a
// live subcc result on the selcc target.
func TestSelCCPicksBySign(t *testing.T) {
	a := asm.New()
	enc, err := encoding.ByName("v8-blockicc-selcc")
	if err != nil {
		t.Fatal(err)
	}

	const (
		rA = target.OReg + 0
		rB = target.OReg + 1
	)
	a.SaveRegImmInstr(0, ir.OpAdd, rA, target.GReg, 7)
	a.SaveRegImmInstr(1, ir.OpSubCC, target.GReg, rA, 10) // 7-10 < 0
	a.SaveSelCCImmImmInstr(2, rB, 1, 2, target.CCL)       // less: picks 1
	a.SaveSelCCImmImmInstr(3, rA, 1, 2, target.CCG)       // not greater: picks 2
	a.SaveSethiInstr(4, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rB); got != 1 {
		t.Errorf("sel on true condition = %d, want 1", got)
	}
	if got := m.Regs.Read(rA); got != 2 {
		t.Errorf("sel on false condition = %d, want 2", got)
	}
}

// TestWindowSaveRestoreOverlap runs save/restore through the interpreter
// and checks that the caller's %o0 survives the round trip and that a
// balanced save/restore returns CWP to its starting window.
func TestWindowSaveRestoreOverlap(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const (
		rO0 = target.OReg + 0
		rI0 = target.IReg + 0
		rL0 = target.LReg + 0
	)
	a.SaveRegImmInstr(0, ir.OpAdd, rO0, target.GReg, 42)
	a.SaveSaveRestoreInstr(1, ir.OpSave, target.SPRegister, target.SPRegister, ir.Imm13(-96))
	a.SaveRegRegInstr(2, ir.OpAdd, rL0, rI0, target.GReg) // %l0 := caller's %o0
	a.SaveSaveRestoreInstr(3, ir.OpRestore, target.GReg, target.GReg, ir.Imm13(0))
	a.SaveSethiInstr(4, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	spBefore := m.Regs.Read(target.SPRegister)
	cwpBefore := m.Regs.CWP()
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Regs.Read(rO0); got != 42 {
		t.Errorf("caller %%o0 = %d after restore, want 42", got)
	}
	if got := m.Regs.CWP(); got != cwpBefore {
		t.Errorf("CWP = %d after balanced save/restore, want %d", got, cwpBefore)
	}
	_ = spBefore
}

// TestJumplSentinelReturn builds the canonical entry-function epilogue and
// checks the machine halts with the return value in %o0.
func TestJumplSentinelReturn(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	const rO0 = target.OReg + 0
	a.SaveRegImmInstr(0, ir.OpAdd, rO0, target.GReg, 7)
	a.SaveJumplInstr(1, target.GReg, target.CallAddrRegister, ir.Imm13(8))
	a.SaveSethiInstr(2, 0, 0) // runs in the slot after the jump

	m := assembleAndLoad(t, a, enc, 0)
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.State != StateHalted {
		t.Fatalf("State = %v, want StateHalted", m.State)
	}
	if got := m.Regs.Read(rO0); got != 7 {
		t.Errorf("return value %%o0 = %d, want 7", got)
	}
}

// TestCycleIntrinsics checks sim-clearcycles zeroes only the local counter
// and sim-printcycles emits one line then resets it.
func TestCycleIntrinsics(t *testing.T) {
	a := asm.New()
	enc := encoding.NewV8()

	a.SaveRegImmInstr(0, ir.OpAdd, target.OReg, target.GReg, 1)
	a.SaveSimCyclesInstr(1, false) // clear
	a.SaveRegImmInstr(2, ir.OpAdd, target.OReg, target.OReg, 1)
	a.SaveSimCyclesInstr(3, true) // print
	a.SaveSethiInstr(4, 0, 0)

	m := assembleAndLoad(t, a, enc, 0)
	var out bytes.Buffer
	m.Out = &out
	if err := m.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "1\n" {
		t.Errorf("sim-printcycles output = %q, want %q (one add after the clear)", got, "1\n")
	}
	if m.LocalCycles == m.Cycles {
		t.Error("local counter should have been reset independently of the global one")
	}
	if m.Cycles == 0 {
		t.Error("global cycle counter should keep counting across intrinsics")
	}
}
