package timecode

import "github.com/edorfaus/dvs-timecode/bits128"

// lfsrBit computes the XOR (parity) of the bits of x selected by taps.
func lfsrBit(x, taps bits128.Uint128) uint64 {
	return x.And(taps).Parity()
}

// fwd steps an LFSR register forwards by one chip. New bits enter at
// the most significant bit of the width-bit register; the register
// shifts right.
func fwd(x bits128.Uint128, width int, taps bits128.Uint128) bits128.Uint128 {
	l := lfsrBit(x, taps.Or(bits128.One()))
	return x.Shr(1).SetBit(uint(width-1), l)
}

// rev steps an LFSR register backwards by one chip: the inverse of
// fwd. New bits enter at the least significant bit; the register
// shifts left and is masked back down to width bits.
func rev(x bits128.Uint128, width int, taps bits128.Uint128) bits128.Uint128 {
	shiftedTaps := taps.Shr(1).Or(bits128.One().Shl(uint(width - 1)))
	l := lfsrBit(x, shiftedTaps)
	mask := bits128.Mask(uint(width))
	return x.Shl(1).And(mask).SetBit(0, l)
}
