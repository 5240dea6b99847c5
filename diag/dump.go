package diag

import (
	"fmt"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/sim"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// DumpRegisters renders the current register window as eight rows holding
// one register of each class, then PC/nPC, Y, CWP, the PSR flags and the
// packed predicate registers, the way the original's "dump regs"
// command groups %g/%o/%l/%i.
func DumpRegisters(m *sim.Machine) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "%%g%d=%08x  %%o%d=%08x  %%l%d=%08x  %%i%d=%08x\n",
			i, m.Regs.Read(target.GReg+i),
			i, m.Regs.Read(target.OReg+i),
			i, m.Regs.Read(target.LReg+i),
			i, m.Regs.Read(target.IReg+i))
	}
	fmt.Fprintf(&b, "pc=%d npc=%d y=%08x cwp=%d\n", m.PC, m.NPC, m.Y, m.PSR.CWP)
	fmt.Fprintf(&b, "psr[n z v c]=[%d %d %d %d]\n",
		boolBit(m.PSR.N), boolBit(m.PSR.Z), boolBit(m.PSR.V), boolBit(m.PSR.C))
	fmt.Fprintf(&b, "preg=%08x\n", m.PredRegs())
	return b.String()
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DumpMemory renders rows lines of 16 bytes each, starting at addr, as hex
// bytes plus an ASCII column; bytes past the end of memory print as "??".
func DumpMemory(m *sim.Machine, addr uint32, rows int) string {
	var b strings.Builder
	for r := 0; r < rows; r++ {
		rowAddr := addr + uint32(r*16)
		fmt.Fprintf(&b, "%08x: ", rowAddr)
		var ascii strings.Builder
		for col := 0; col < 16; col++ {
			byteAddr := rowAddr + uint32(col)
			word, ok := m.Memory.ReadWord(byteAddr &^ 3)
			if !ok {
				b.WriteString("?? ")
				ascii.WriteByte('.')
				continue
			}
			shift := uint(3-(byteAddr&3)) * 8
			by := byte(word >> shift)
			fmt.Fprintf(&b, "%02x ", by)
			if by >= 32 && by < 127 {
				ascii.WriteByte(by)
			} else {
				ascii.WriteByte('.')
			}
			if col%4 == 3 {
				b.WriteString(" ")
			}
		}
		b.WriteString(ascii.String())
		b.WriteString("\n")
	}
	return b.String()
}

// DumpCycles renders the global and resettable local cycle counters.
func DumpCycles(m *sim.Machine) string {
	return fmt.Sprintf("cycles=%d local=%d\n", m.Cycles, m.LocalCycles)
}

// DisassembleRange renders count decoded instructions starting at instrNo,
// one per line, address-prefixed, stopping at the end of the text segment.
func DisassembleRange(m *sim.Machine, instrNo uint32, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		idx := instrNo + uint32(i)
		word, ok := m.InstructionAt(idx)
		if !ok {
			break
		}
		inst, err := m.Target.Decode(word)
		if err != nil {
			fmt.Fprintf(&b, "  %06x: <bad opcode 0x%08x>\n", idx, word)
			continue
		}
		inst.InstrNo = idx
		marker := "  "
		if idx == m.PC {
			marker = "->"
		}
		fmt.Fprintf(&b, "%s%06x: %s\n", marker, idx, Disassemble(inst))
	}
	return b.String()
}
