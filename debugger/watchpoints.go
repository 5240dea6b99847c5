package debugger

import (
	"fmt"
	"sync"

	"github.com/cbgeyer/sparc-ext-sim/sim"
)

// WatchType selects what kind of access trips a watchpoint. The simulator
// only supports value-change detection, so all three trigger identically.
type WatchType int

const (
	WatchWrite WatchType = iota
	WatchRead
	WatchReadWrite
)

// Watchpoint monitors a register or a memory word for a value change.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string
	Address    uint32
	IsRegister bool
	Register   int
	Enabled    bool
	LastValue  uint32
	HitCount   int
}

// WatchpointManager manages all watchpoints over a sim.Machine's register
// file and byte memory.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{watchpoints: make(map[int]*Watchpoint), nextID: 1}
}

func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string, address uint32, isRegister bool, register int) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{ID: wm.nextID, Type: wpType, Expression: expression,
		Address: address, IsRegister: isRegister, Register: register, Enabled: true}
	wm.watchpoints[wp.ID] = wp
	wm.nextID++
	return wp
}

func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.watchpoints, id)
	return nil
}

func (wm *WatchpointManager) EnableWatchpoint(id int) error  { return wm.setEnabled(id, true) }
func (wm *WatchpointManager) DisableWatchpoint(id int) error { return wm.setEnabled(id, false) }

func (wm *WatchpointManager) setEnabled(id int, enabled bool) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	wp.Enabled = enabled
	return nil
}

func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.watchpoints[id]
}

func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}
	return result
}

// CheckWatchpoints returns the first enabled watchpoint whose monitored
// value differs from the value recorded at its last check.
func (wm *WatchpointManager) CheckWatchpoints(m *sim.Machine) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}
		var current uint32
		if wp.IsRegister {
			current = m.Regs.Read(wp.Register)
		} else {
			v, ok := m.Memory.ReadWord(wp.Address)
			if !ok {
				continue
			}
			current = v
		}
		if current != wp.LastValue {
			wp.HitCount++
			wp.LastValue = current
			return wp, true
		}
	}
	return nil, false
}

func (wm *WatchpointManager) InitializeWatchpoint(id int, m *sim.Machine) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	if wp.IsRegister {
		wp.LastValue = m.Regs.Read(wp.Register)
		return nil
	}
	v, ok := m.Memory.ReadWord(wp.Address)
	if !ok {
		return fmt.Errorf("failed to initialize watchpoint: address 0x%08x out of range", wp.Address)
	}
	wp.LastValue = v
	return nil
}

func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.watchpoints = make(map[int]*Watchpoint)
}

func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.watchpoints)
}
