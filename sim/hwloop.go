package sim

// hwloopState tracks the hardware-managed counted loop: a start address, an
// end address, and a trip count. HWLOOP_START arms the loop; each time
// control reaches the end address, Step's pre-decode check decrements the
// counter and branches back to the start address until the count is
// exhausted.
type hwloopState struct {
	start, end uint32
	bound      uint32
	remaining  uint32
	active     bool
}

func (h *hwloopState) reset() { *h = hwloopState{} }

func (h *hwloopState) setStart(addr uint32) { h.start = addr }
func (h *hwloopState) setEnd(addr uint32)   { h.end = addr }
func (h *hwloopState) setBound(n uint32)    { h.bound = n }

func (h *hwloopState) arm() {
	h.remaining = h.bound
	h.active = h.bound > 0
}

// checkAutoBranch runs before fetch/decode each Step; it returns the PC to
// continue from when the loop fires, or ok=false when nothing happened.
func (h *hwloopState) checkAutoBranch(pc uint32) (newPC uint32, ok bool) {
	if !h.active || pc != h.end {
		return 0, false
	}
	h.remaining--
	if h.remaining == 0 {
		h.active = false
		return 0, false
	}
	return h.start, true
}
