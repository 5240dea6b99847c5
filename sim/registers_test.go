package sim

import (
	"testing"

	"github.com/cbgeyer/sparc-ext-sim/target"
)

func TestRegistersZeroRegisterInvariant(t *testing.T) {
	r := NewRegisters()
	r.Write(target.GReg, 0xdeadbeef)
	if got := r.Read(target.GReg); got != 0 {
		t.Errorf("%%g0 = 0x%x, want 0", got)
	}
}

func TestRegistersGlobalsSharedAcrossWindows(t *testing.T) {
	r := NewRegisters()
	r.Write(target.GReg+1, 42)
	r.Save()
	if got := r.Read(target.GReg + 1); got != 42 {
		t.Errorf("%%g1 after SAVE = %d, want 42", got)
	}
}

func TestRegistersWindowRotation(t *testing.T) {
	r := NewRegisters()
	start := r.CWP()
	for i := 0; i < target.NWindows; i++ {
		r.Write(target.OReg, uint32(i))
		r.Save()
	}
	if r.CWP() != start {
		t.Fatalf("CWP after %d SAVEs = %d, want %d", target.NWindows, r.CWP(), start)
	}
	for i := 0; i < target.NWindows; i++ {
		r.Restore()
	}
	if r.CWP() != start {
		t.Fatalf("CWP after matching RESTOREs = %d, want %d", r.CWP(), start)
	}
}

func TestRegistersInsReadPreviousWindowOuts(t *testing.T) {
	r := NewRegisters()
	r.Write(target.OReg+3, 99)
	r.Save()
	if got := r.Read(target.IReg + 3); got != 99 {
		t.Errorf("%%i3 in new window = %d, want 99 (outs of previous window)", got)
	}
}

func TestPSRRoundTrip(t *testing.T) {
	tests := []PSR{
		{N: false, Z: false, V: false, C: false, CWP: 0},
		{N: true, Z: true, V: true, C: true, CWP: int(target.PSRInitMask)},
		{N: true, Z: false, V: true, C: false, CWP: 3},
	}
	for _, want := range tests {
		var got PSR
		got.FromUint32(want.ToUint32())
		if got != want {
			t.Errorf("PSR round-trip: got %+v, want %+v", got, want)
		}
	}
}

func TestEvaluateICC(t *testing.T) {
	vals := []int32{0, 1, -1, 2147483647, -2147483648}
	for _, a := range vals {
		for _, b := range vals {
			result := uint32(a) - uint32(b)
			n, z, v, c := subFlags(uint32(a), uint32(b), result)
			psr := PSR{N: n, Z: z, V: v, C: c}

			wantE := a == b
			if got := psr.EvaluateICC(target.CCE); got != wantE {
				t.Errorf("a=%d b=%d: CCE = %v, want %v", a, b, got, wantE)
			}
			wantNE := a != b
			if got := psr.EvaluateICC(target.CCNE); got != wantNE {
				t.Errorf("a=%d b=%d: CCNE = %v, want %v", a, b, got, wantNE)
			}
			wantG := a > b
			if got := psr.EvaluateICC(target.CCG); got != wantG {
				t.Errorf("a=%d b=%d: CCG = %v, want %v", a, b, got, wantG)
			}
			wantL := a < b
			if got := psr.EvaluateICC(target.CCL); got != wantL {
				t.Errorf("a=%d b=%d: CCL = %v, want %v", a, b, got, wantL)
			}
			if got := psr.EvaluateICC(target.CCA); !got {
				t.Errorf("a=%d b=%d: CCA = %v, want true", a, b, got)
			}
			if got := psr.EvaluateICC(target.CCN); got {
				t.Errorf("a=%d b=%d: CCN = %v, want false", a, b, got)
			}
		}
	}
}
