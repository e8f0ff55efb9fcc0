package rxvm

import "math/bits"

// magicDivision holds the precomputed constants that let IDIV_C's runtime
// effect (`d += d / divisor`) be expressed as a multiply-high-and-shift
// instead of a division (spec §4.D/§9).
type magicDivision struct {
	isPow2    bool
	shift     uint8 // used only when isPow2
	multiplier uint64
	preShift  uint8
	postShift uint8
	increment bool
}

// computeMagicDivision derives the unsigned-magic-number division constants
// for a nonzero, non-power-of-two uint32 divisor, following the standard
// Hacker's Delight "magicu" construction (grounded on the reference
// implementation's randomx_reciprocal in
// _examples/other_examples/dulumao-RandomX__superscalar.go, which computes
// the analogous constant for the reference's IMUL_RCP; this module needs
// the general mulh/shift form spec.md §4.D actually specifies, which is the
// textbook unsigned-division-by-invariant-integer algorithm rather than the
// reference's single-purpose reciprocal).
//
// The divisor is first factored as divisor = d1 * 2^preShift with d1 odd,
// so the multiply-high step only ever has to invert an odd divisor; the
// even part is removed by a plain right shift on the dividend beforehand.
// Where magicu would need a 65-bit multiplier, the round-down form is used
// instead: multiplier floor(2^(64+l)/d) with l = floor(log2 d), applied to
// the dividend plus one (the increment flag).
func computeMagicDivision(divisor uint32) magicDivision {
	if divisor&(divisor-1) == 0 {
		return magicDivision{isPow2: true, shift: uint8(bits.TrailingZeros32(divisor))}
	}

	preShift := uint8(bits.TrailingZeros32(divisor))
	d := uint64(divisor >> preShift)

	const half = uint64(1) << 63
	nc := ^uint64(0) - (-d)%d // largest multiple of d, minus 1, in 64-bit width

	p := uint(63)
	q1 := half / nc
	r1 := half - q1*nc
	q2 := (half - 1) / d
	r2 := (half - 1) - q2*d
	var increment bool

	for {
		p++
		if r1 >= nc-r1 {
			q1 = 2*q1 + 1
			r1 = 2*r1 - nc
		} else {
			q1 = 2 * q1
			r1 = 2 * r1
		}
		if r2+1 >= d-r2 {
			if q2 >= half-1 {
				increment = true
			}
			q2 = 2*q2 + 1
			r2 = 2*r2 + 1 - d
		} else {
			if q2 >= half {
				increment = true
			}
			q2 = 2 * q2
			r2 = 2*r2 + 1
		}
		delta := d - 1 - r2
		if !(p < 128 && (q1 < delta || (q1 == delta && r1 == 0))) {
			break
		}
	}

	if increment {
		l := uint(63 - bits.LeadingZeros64(d))
		m, _ := bits.Div64(uint64(1)<<l, 0, d)
		return magicDivision{multiplier: m, preShift: preShift, postShift: uint8(l), increment: true}
	}

	return magicDivision{
		multiplier: q2 + 1,
		preShift:   preShift,
		postShift:  uint8(p - 64),
		increment:  increment,
	}
}

// quotient applies the precomputed constants to compute x/divisor for a
// 64-bit dividend x, matching the runtime effect named in spec §4.D/§4.E.
// The increment step saturates at UINT64_MAX as required.
func (m magicDivision) quotient(x uint64) uint64 {
	if m.isPow2 {
		return x >> m.shift
	}
	shifted := x >> m.preShift
	if m.increment {
		if shifted == ^uint64(0) {
			shifted = ^uint64(0)
		} else {
			shifted++
		}
	}
	return mulh(shifted, m.multiplier) >> m.postShift
}
