package sim

import (
	"fmt"
	"os"

	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// effects is the set of pending state changes a computed instruction
// wants to commit. Step decides, based on predication, whether to apply
// them: side effects are computed first, the predication gate is
// evaluated, and only then are writes committed.
type effects struct {
	hasReg bool
	reg    int
	val    uint32

	hasMem   bool
	memAddr  uint32
	memVal   uint32
	memWidth int

	hasFlags   bool
	n, z, v, c bool

	hasY bool
	y    uint32

	hasPReg      bool
	pregN        int
	pregT, pregF bool

	hasWindow bool
	save      bool // true = Save(), false = Restore()

	branch   bool
	branchPC uint32

	cycles int
}

func (m *Machine) regOrImm(op ir.Operand) uint32 {
	switch op.Tag {
	case ir.OperandRegister:
		return m.Regs.Read(op.Reg)
	default:
		return uint32(op.Imm)
	}
}

// compute evaluates inst against the machine's current (pre-commit) state
// and returns the effects it would have; it never mutates Machine.
func (m *Machine) compute(inst *ir.Instruction) (effects, error) {
	switch inst.Opcode {

	case ir.OpNop:
		return effects{cycles: target.CyclesInteger}, nil

	case ir.OpAdd, ir.OpAddCC, ir.OpAddX, ir.OpAddXCC, ir.OpTaddCC:
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		if inst.Opcode == ir.OpAddX || inst.Opcode == ir.OpAddXCC {
			if m.PSR.C {
				b++
			}
		}
		result := a + b
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: result, cycles: target.CyclesInteger}
		if inst.Opcode == ir.OpAddCC || inst.Opcode == ir.OpAddXCC || inst.Opcode == ir.OpTaddCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = addFlags(a, b, result)
		}
		return e, nil

	case ir.OpSub, ir.OpSubCC, ir.OpSubX, ir.OpSubXCC, ir.OpTsubCC:
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		if inst.Opcode == ir.OpSubX || inst.Opcode == ir.OpSubXCC {
			if m.PSR.C {
				b++
			}
		}
		result := a - b
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: result, cycles: target.CyclesInteger}
		if inst.Opcode == ir.OpSubCC || inst.Opcode == ir.OpSubXCC || inst.Opcode == ir.OpTsubCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = subFlags(a, b, result)
		}
		return e, nil

	case ir.OpAnd, ir.OpAndCC, ir.OpAndN, ir.OpAndNCC,
		ir.OpOr, ir.OpOrCC, ir.OpOrN, ir.OpOrNCC,
		ir.OpXor, ir.OpXorCC, ir.OpXnor, ir.OpXnorCC:
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		var result uint32
		setFlags := false
		switch inst.Opcode {
		case ir.OpAnd:
			result = a & b
		case ir.OpAndCC:
			result, setFlags = a&b, true
		case ir.OpAndN:
			result = a &^ b
		case ir.OpAndNCC:
			result, setFlags = a&^b, true
		case ir.OpOr:
			result = a | b
		case ir.OpOrCC:
			result, setFlags = a|b, true
		case ir.OpOrN:
			result = a | ^b
		case ir.OpOrNCC:
			result, setFlags = a|^b, true
		case ir.OpXor:
			result = a ^ b
		case ir.OpXorCC:
			result, setFlags = a^b, true
		case ir.OpXnor:
			result = ^(a ^ b)
		case ir.OpXnorCC:
			result, setFlags = ^(a^b), true
		}
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: result, cycles: target.CyclesInteger}
		if setFlags {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = logicFlags(result)
		}
		return e, nil

	case ir.OpSLL, ir.OpSRL, ir.OpSRA:
		a := m.Regs.Read(inst.Operands[1].Reg)
		shift := m.regOrImm(inst.Operands[2]) & 0x1f
		var result uint32
		switch inst.Opcode {
		case ir.OpSLL:
			result = a << shift
		case ir.OpSRL:
			result = a >> shift
		case ir.OpSRA:
			result = uint32(int32(a) >> shift)
		}
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: result, cycles: target.CyclesInteger}, nil

	case ir.OpUMul, ir.OpUMulCC:
		a := uint64(m.Regs.Read(inst.Operands[1].Reg))
		b := uint64(m.regOrImm(inst.Operands[2]))
		prod := a * b
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(prod), cycles: target.CyclesMul,
			hasY: true, y: uint32(prod >> 32)}
		if inst.Opcode == ir.OpUMulCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = mulFlags(uint32(prod))
		}
		return e, nil

	case ir.OpSMul, ir.OpSMulCC:
		a := int64(int32(m.Regs.Read(inst.Operands[1].Reg)))
		b := int64(int32(m.regOrImm(inst.Operands[2])))
		prod := a * b
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(prod), cycles: target.CyclesMul,
			hasY: true, y: uint32(uint64(prod) >> 32)}
		if inst.Opcode == ir.OpSMulCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = mulFlags(uint32(prod))
		}
		return e, nil

	case ir.OpUDiv, ir.OpUDivCC:
		dividend := (uint64(m.Y) << 32) | uint64(m.Regs.Read(inst.Operands[1].Reg))
		divisor := uint64(m.regOrImm(inst.Operands[2]))
		if divisor == 0 {
			return effects{}, m.fault(FaultDivideByZero, "division by zero")
		}
		q := dividend / divisor
		overflow := q > 0xFFFFFFFF
		if overflow {
			q = 0xFFFFFFFF
		}
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(q), cycles: target.CyclesDiv}
		if inst.Opcode == ir.OpUDivCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = udivFlags(uint32(q), overflow)
		}
		return e, nil

	case ir.OpSDiv, ir.OpSDivCC:
		dividend := (int64(int32(m.Y)) << 32) | int64(uint64(m.Regs.Read(inst.Operands[1].Reg)))
		divisor := int64(int32(m.regOrImm(inst.Operands[2])))
		if divisor == 0 {
			return effects{}, m.fault(FaultDivideByZero, "division by zero")
		}
		q := dividend / divisor
		overflow := q > 0x7FFFFFFF || q < -0x80000000
		if overflow {
			if q > 0 {
				q = 0x7FFFFFFF
			} else {
				q = -0x80000000
			}
		}
		e := effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(int32(q)), cycles: target.CyclesDiv}
		if inst.Opcode == ir.OpSDivCC {
			e.hasFlags = true
			e.n, e.z, e.v, e.c = sdivFlags(uint32(int32(q)), overflow)
		}
		return e, nil

	case ir.OpLDSB, ir.OpLDSH, ir.OpLDUB, ir.OpLDUH, ir.OpLD:
		addr := m.Regs.Read(inst.Operands[1].Reg) + m.regOrImm(inst.Operands[2])
		return m.computeLoad(inst.Opcode, inst.Operands[0].Reg, addr)

	case ir.OpLDD:
		// double load is accepted but left as a no-op: no register or
		// memory state changes.
		fmt.Fprintf(os.Stderr, "sim: ldd at instruction %d not implemented, ignored\n", inst.InstrNo)
		return effects{cycles: target.CyclesLoadDouble}, nil

	case ir.OpSTB, ir.OpSTH, ir.OpST:
		addr := m.Regs.Read(inst.Operands[1].Reg) + m.regOrImm(inst.Operands[2])
		val := m.Regs.Read(inst.Operands[0].Reg)
		return m.computeStore(inst.Opcode, addr, val)

	case ir.OpSTD:
		fmt.Fprintf(os.Stderr, "sim: std at instruction %d not implemented, ignored\n", inst.InstrNo)
		return effects{cycles: target.CyclesStoreDouble}, nil

	case ir.OpLdstub:
		addr := m.Regs.Read(inst.Operands[1].Reg) + m.regOrImm(inst.Operands[2])
		old, ok := m.Memory.ReadByte(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "ldstub out of range")
		}
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(old),
			hasMem: true, memAddr: addr, memVal: 0xff, memWidth: 1, cycles: target.CyclesLdstub}, nil

	case ir.OpSwap:
		addr := m.Regs.Read(inst.Operands[1].Reg) + m.regOrImm(inst.Operands[2])
		if !m.Memory.Aligned(addr, 4) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned swap")
		}
		old, ok := m.Memory.ReadWord(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "swap out of range")
		}
		rval := m.Regs.Read(inst.Operands[0].Reg)
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: old,
			hasMem: true, memAddr: addr, memVal: rval, memWidth: 4, cycles: target.CyclesSwap}, nil

	case ir.OpSave:
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: a + b,
			hasWindow: true, save: true, cycles: target.CyclesInteger}, nil

	case ir.OpRestore:
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: a + b,
			hasWindow: true, save: false, cycles: target.CyclesInteger}, nil

	case ir.OpJumpl:
		// addr is a byte address by register convention; nPC takes the
		// instruction index addr>>2. The link written back is the byte
		// address of this jumpl instruction itself.
		base := m.Regs.Read(inst.Operands[1].Reg)
		off := m.regOrImm(inst.Operands[2])
		addr := base + off
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: inst.InstrNo * 4,
			branch: true, branchPC: addr / 4, cycles: target.CyclesInteger}, nil

	case ir.OpCall:
		// label_addr is already an instruction index; o7 gets the byte
		// address of the call instruction itself.
		dest := inst.InstrNo + uint32(inst.Operands[0].Imm)
		return effects{hasReg: true, reg: target.CallAddrRegister, val: inst.InstrNo * 4,
			branch: true, branchPC: dest, cycles: target.CyclesInteger}, nil

	case ir.OpBranch:
		cc := inst.Operands[0].ICC
		taken := m.PSR.EvaluateICC(cc)
		e := effects{cycles: target.CyclesInteger}
		if taken {
			e.branch = true
			e.branchPC = inst.InstrNo + uint32(inst.Operands[1].Imm)
		}
		return e, nil

	case ir.OpSethi:
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: uint32(inst.Operands[1].Imm) << 10, cycles: target.CyclesInteger}, nil

	case ir.OpRd:
		if inst.Operands[1].Reg != target.YRegisterNo {
			return effects{}, m.fault(FaultBadYAccess, "RD source is not %y")
		}
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: m.Y, cycles: target.CyclesInteger}, nil

	case ir.OpWr:
		if inst.Operands[0].Reg != target.YRegisterNo {
			return effects{}, m.fault(FaultBadYAccess, "WR destination is not %y")
		}
		a := m.Regs.Read(inst.Operands[1].Reg)
		b := m.regOrImm(inst.Operands[2])
		return effects{hasY: true, y: a ^ b, cycles: target.CyclesInteger}, nil

	case ir.OpMovCC:
		cc := inst.Operands[2].ICC
		if !m.PSR.EvaluateICC(cc) {
			return effects{cycles: target.CyclesInteger}, nil
		}
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: m.regOrImm(inst.Operands[1]), cycles: target.CyclesInteger}, nil

	case ir.OpPredSet:
		// A conditional predset sets one half of the pair and clears the
		// other from the live condition codes. The unconditional form is
		// encoded with the "always" condition and sets both halves.
		cc := inst.Operands[1].ICC
		t := m.PSR.EvaluateICC(cc)
		f := !t
		if cc == target.CCA {
			f = true
		}
		return effects{hasPReg: true, pregN: inst.Operands[0].Reg, pregT: t, pregF: f,
			cycles: target.CyclesInteger}, nil

	case ir.OpPredClear:
		// predclear zeroes both halves, fully disabling the predicate
		// rather than pinning it false.
		return effects{hasPReg: true, pregN: inst.Operands[0].Reg,
			cycles: target.CyclesInteger}, nil

	case ir.OpSel:
		cc := inst.Operands[len(inst.Operands)-1].ICC
		var val uint32
		if m.PSR.EvaluateICC(cc) {
			val = m.regOrImm(inst.Operands[1])
		} else {
			val = m.regOrImm(inst.Operands[2])
		}
		return effects{hasReg: true, reg: inst.Operands[0].Reg, val: val, cycles: target.CyclesInteger}, nil

	}

	return effects{}, m.fault(FaultUnknownOpcode, "unimplemented opcode")
}

func (m *Machine) computeLoad(op ir.Opcode, dst int, addr uint32) (effects, error) {
	switch op {
	case ir.OpLDSB:
		b, ok := m.Memory.ReadByte(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "load out of range")
		}
		return effects{hasReg: true, reg: dst, val: uint32(int32(int8(b))), cycles: target.CyclesLoadSingle}, nil
	case ir.OpLDUB:
		b, ok := m.Memory.ReadByte(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "load out of range")
		}
		return effects{hasReg: true, reg: dst, val: uint32(b), cycles: target.CyclesLoadSingle}, nil
	case ir.OpLDSH:
		if !m.Memory.Aligned(addr, 2) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned halfword load")
		}
		h, ok := m.Memory.ReadHalf(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "load out of range")
		}
		return effects{hasReg: true, reg: dst, val: uint32(int32(int16(h))), cycles: target.CyclesLoadSingle}, nil
	case ir.OpLDUH:
		if !m.Memory.Aligned(addr, 2) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned halfword load")
		}
		h, ok := m.Memory.ReadHalf(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "load out of range")
		}
		return effects{hasReg: true, reg: dst, val: uint32(h), cycles: target.CyclesLoadSingle}, nil
	case ir.OpLD:
		if !m.Memory.Aligned(addr, 4) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned word load")
		}
		w, ok := m.Memory.ReadWord(addr)
		if !ok {
			return effects{}, m.fault(FaultBadMemoryAccess, "load out of range")
		}
		return effects{hasReg: true, reg: dst, val: w, cycles: target.CyclesLoadSingle}, nil
	}
	return effects{}, m.fault(FaultUnknownOpcode, "unreachable load opcode")
}

func (m *Machine) computeStore(op ir.Opcode, addr, val uint32) (effects, error) {
	switch op {
	case ir.OpSTB:
		return effects{hasMem: true, memAddr: addr, memVal: val, memWidth: 1, cycles: target.CyclesStoreSingle}, nil
	case ir.OpSTH:
		if !m.Memory.Aligned(addr, 2) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned halfword store")
		}
		return effects{hasMem: true, memAddr: addr, memVal: val, memWidth: 2, cycles: target.CyclesStoreSingle}, nil
	case ir.OpST:
		if !m.Memory.Aligned(addr, 4) {
			return effects{}, m.fault(FaultUnalignedAccess, "unaligned word store")
		}
		return effects{hasMem: true, memAddr: addr, memVal: val, memWidth: 4, cycles: target.CyclesStoreSingle}, nil
	}
	return effects{}, m.fault(FaultUnknownOpcode, "unreachable store opcode")
}
