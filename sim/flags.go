package sim

// Condition-flag derivation for the *cc arithmetic opcodes: carry and
// overflow from the sign bits of the operands and result, plus the
// divide-overflow rule SPARC V8 defines for udivcc/sdivcc.

const signBit = uint32(1) << 31

func nzFromResult(result uint32) (n, z bool) {
	return result&signBit != 0, result == 0
}

// addFlags derives N/Z/V/C for ADD/ADDCC/ADDX/ADDXCC/TADDCC.
func addFlags(a, b, result uint32) (n, z, v, c bool) {
	n, z = nzFromResult(result)
	c = result < a
	aSign, bSign, rSign := a&signBit != 0, b&signBit != 0, result&signBit != 0
	v = (aSign == bSign) && (aSign != rSign)
	return
}

// subFlags derives N/Z/V/C for SUB/SUBCC/SUBX/SUBXCC/TSUBCC.
func subFlags(a, b, result uint32) (n, z, v, c bool) {
	n, z = nzFromResult(result)
	c = a < b
	aSign, bSign, rSign := a&signBit != 0, b&signBit != 0, result&signBit != 0
	v = (aSign != bSign) && (aSign != rSign)
	return
}

// logicFlags derives N/Z for the AND/OR/XOR/ANDN/ORN/XNOR *cc forms; V and
// C are always cleared (SPARC V8 manual p.115).
func logicFlags(result uint32) (n, z, v, c bool) {
	n, z = nzFromResult(result)
	return n, z, false, false
}

// mulFlags derives N/Z for UMULCC/SMULCC; V and C are always cleared.
func mulFlags(result uint32) (n, z, v, c bool) {
	return logicFlags(result)
}

// udivFlags derives N/Z/V for UDIVCC: V is set when the unclamped 64-bit
// quotient did not fit in 32 bits (overflow), C is always cleared.
func udivFlags(result uint32, overflowed bool) (n, z, v, c bool) {
	n, z = nzFromResult(result)
	return n, z, overflowed, false
}

// sdivFlags derives N/Z/V for SDIVCC, same shape as udivFlags.
func sdivFlags(result uint32, overflowed bool) (n, z, v, c bool) {
	return udivFlags(result, overflowed)
}
