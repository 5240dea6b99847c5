package sim

import (
	"encoding/binary"

	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Memory is a single big-endian linear byte array covering the data
// segment and the scratch region beyond it.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a zeroed region sized to hold dataSize declared
// bytes plus target.FreeMemBytes of scratch space, rounded down to a
// 4-byte multiple.
func NewMemory(dataSize uint32) *Memory {
	size := (dataSize + target.FreeMemBytes) &^ 3
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the total addressable byte count.
func (m *Memory) Size() uint32 { return uint32(len(m.bytes)) }

// LoadData copies the assembled data segment into the start of memory.
func (m *Memory) LoadData(data []byte) {
	copy(m.bytes, data)
}

func (m *Memory) inBounds(addr, width uint32) bool {
	return addr+width <= uint32(len(m.bytes))
}

// Aligned reports whether addr satisfies the natural alignment of a
// width-byte access. Byte accesses are always aligned.
func (m *Memory) Aligned(addr, width uint32) bool {
	return addr&(width-1) == 0
}

// ReadByte/ReadHalf/ReadWord read at addr, which callers must already
// have alignment-checked via Aligned for width > 1; a misaligned halfword
// or word access is rejected at the call site, never rounded down.

func (m *Memory) ReadByte(addr uint32) (byte, bool) {
	if !m.inBounds(addr, 1) {
		return 0, false
	}
	return m.bytes[addr], true
}

func (m *Memory) ReadHalf(addr uint32) (uint16, bool) {
	if !m.inBounds(addr, 2) {
		return 0, false
	}
	return binary.BigEndian.Uint16(m.bytes[addr:]), true
}

func (m *Memory) ReadWord(addr uint32) (uint32, bool) {
	if !m.inBounds(addr, 4) {
		return 0, false
	}
	return binary.BigEndian.Uint32(m.bytes[addr:]), true
}

func (m *Memory) WriteByte(addr uint32, v byte) bool {
	if !m.inBounds(addr, 1) {
		return false
	}
	m.bytes[addr] = v
	return true
}

func (m *Memory) WriteHalf(addr uint32, v uint16) bool {
	if !m.inBounds(addr, 2) {
		return false
	}
	binary.BigEndian.PutUint16(m.bytes[addr:], v)
	return true
}

func (m *Memory) WriteWord(addr uint32, v uint32) bool {
	if !m.inBounds(addr, 4) {
		return false
	}
	binary.BigEndian.PutUint32(m.bytes[addr:], v)
	return true
}
