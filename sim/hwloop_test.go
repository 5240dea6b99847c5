package sim

import "testing"

func TestHWLoopExactIterationCount(t *testing.T) {
	h := hwloopState{}
	h.setStart(0x10)
	h.setEnd(0x40)
	h.setBound(5)
	h.arm()

	fired := 0
	for i := 0; i < 100; i++ {
		if _, ok := h.checkAutoBranch(0x40); ok {
			fired++
			continue
		}
		break
	}
	if fired != 4 {
		t.Errorf("hwloop fired %d times, want 4 (bound-1, since the 5th hit exhausts it)", fired)
	}
	if h.active {
		t.Error("hwloop still active after exhausting bound")
	}
}

func TestHWLoopZeroBoundNeverFires(t *testing.T) {
	h := hwloopState{}
	h.setStart(0)
	h.setEnd(4)
	h.setBound(0)
	h.arm()
	if h.active {
		t.Error("hwloop armed with zero bound should not be active")
	}
	if _, ok := h.checkAutoBranch(4); ok {
		t.Error("hwloop with zero bound should never auto-branch")
	}
}

func TestHWLoopIgnoresNonEndPC(t *testing.T) {
	h := hwloopState{}
	h.setStart(0)
	h.setEnd(4)
	h.setBound(3)
	h.arm()
	if _, ok := h.checkAutoBranch(8); ok {
		t.Error("hwloop fired at a PC other than its end address")
	}
}
