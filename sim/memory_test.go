package sim

import "testing"

func TestMemoryAligned(t *testing.T) {
	tests := []struct {
		addr, width uint32
		want        bool
	}{
		{0, 1, true}, {1, 1, true}, {3, 1, true},
		{0, 2, true}, {1, 2, false}, {2, 2, true}, {3, 2, false},
		{0, 4, true}, {2, 4, false}, {4, 4, true}, {5, 4, false},
	}
	m := NewMemory(64)
	for _, tt := range tests {
		if got := m.Aligned(tt.addr, tt.width); got != tt.want {
			t.Errorf("Aligned(%d, %d) = %v, want %v", tt.addr, tt.width, got, tt.want)
		}
	}
}

func TestMemoryReadWriteRoundTrip(t *testing.T) {
	m := NewMemory(64)
	if !m.WriteWord(0, 0xdeadbeef) {
		t.Fatal("WriteWord failed")
	}
	got, ok := m.ReadWord(0)
	if !ok || got != 0xdeadbeef {
		t.Errorf("ReadWord(0) = 0x%x, %v, want 0xdeadbeef, true", got, ok)
	}

	if !m.WriteHalf(4, 0xbeef) {
		t.Fatal("WriteHalf failed")
	}
	h, ok := m.ReadHalf(4)
	if !ok || h != 0xbeef {
		t.Errorf("ReadHalf(4) = 0x%x, %v, want 0xbeef, true", h, ok)
	}

	if !m.WriteByte(8, 0x42) {
		t.Fatal("WriteByte failed")
	}
	b, ok := m.ReadByte(8)
	if !ok || b != 0x42 {
		t.Errorf("ReadByte(8) = 0x%x, %v, want 0x42, true", b, ok)
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewMemory(4)
	size := m.Size()
	if _, ok := m.ReadWord(size); ok {
		t.Errorf("ReadWord(size) should report out of bounds")
	}
	if ok := m.WriteByte(size, 1); ok {
		t.Errorf("WriteByte(size, ...) should report out of bounds")
	}
}
