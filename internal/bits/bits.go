// Package bits implements the scatter-gather bit-field extraction used to
// decode RISC-V compressed-instruction encodings: reading a contiguous
// [hi:lo] range out of a fixed-width word, and assembling a field out of
// several such ranges deposited at different destination shifts.
package bits

import "fmt"

// Extract returns bits [hi:lo] of word, right-aligned (bit 0 is the least
// significant bit). It panics if the range is invalid, since every call
// site in this repository uses statically-known encoding ranges: a bad
// range is a programming error, not a runtime condition.
func Extract(word uint32, hi, lo int) uint32 {
	if lo < 0 || hi < lo || hi > 31 {
		panic(fmt.Sprintf("bits: invalid range [%d:%d]", hi, lo))
	}
	width := hi - lo + 1
	mask := uint32(1)<<uint(width) - 1
	return (word >> uint(lo)) & mask
}

// SignExtend extends the low n bits of v, treated as a signed two's
// complement integer, out to a full int64.
func SignExtend(v uint32, n int) int64 {
	if n <= 0 || n > 32 {
		panic(fmt.Sprintf("bits: invalid sign-extend width %d", n))
	}
	shift := uint(32 - n)
	return int64(int32(v<<shift) >> shift)
}

// ZeroExtend extends the low n bits of v to an unsigned int64.
func ZeroExtend(v uint32, n int) int64 {
	if n <= 0 || n > 32 {
		panic(fmt.Sprintf("bits: invalid zero-extend width %d", n))
	}
	mask := uint32(1)<<uint(n) - 1
	return int64(v & mask)
}

// Range is a static (hi, lo, dstShift) descriptor: "take bits [hi:lo] of
// the source word and deposit them at bit dstShift of the destination
// field". Several Ranges may target the same field, which is how RVC's
// scattered immediate encodings are expressed.
type Range struct {
	Hi, Lo   int
	DstShift int
}

// Deposit applies a single range: extract then shift into position.
func (r Range) Deposit(word uint32) uint32 {
	return Extract(word, r.Hi, r.Lo) << uint(r.DstShift)
}

// Assemble ORs together the deposits of every range in ranges, producing
// the raw (unsigned, not yet sign-extended) assembled field.
func Assemble(word uint32, ranges ...Range) uint32 {
	var out uint32
	for _, r := range ranges {
		out |= r.Deposit(word)
	}
	return out
}
