package rxvm

import (
	"math"
	"math/big"
	"math/bits"
)

// mulh returns the high 64 bits of the unsigned 128-bit product of a and b.
func mulh(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// smulh returns the high 64 bits of the signed 128-bit product of a and b,
// both interpreted as two's-complement int64s. Grounded on the standard
// correction on top of an unsigned multiply: subtract the other operand
// from the high half once per negative operand.
func smulh(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	signed := int64(hi)
	if a < 0 {
		signed -= b
	}
	if b < 0 {
		signed -= a
	}
	return uint64(signed)
}

// rotr rotates x right by k bits, k taken modulo 64.
func rotr(x uint64, k uint) uint64 {
	return bits.RotateLeft64(x, -int(k))
}

// rotl rotates x left by k bits, k taken modulo 64.
func rotl(x uint64, k uint) uint64 {
	return bits.RotateLeft64(x, int(k))
}

// signExtend2sCompl sign-extends a 32-bit two's-complement value to 64 bits.
func signExtend2sCompl(x uint32) uint64 {
	return uint64(int64(int32(x)))
}

// loadCvtI32x2 reads 8 bytes as two little-endian int32s and converts each
// exactly to float64, returned as (lo, hi).
func loadCvtI32x2(p []byte) PackedDouble {
	lo := int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24)
	hi := int32(uint32(p[4]) | uint32(p[5])<<8 | uint32(p[6])<<16 | uint32(p[7])<<24)
	return PackedDouble{float64(lo), float64(hi)}
}

// absPD clears the sign bit of both lanes of a packed double.
func absPD(v PackedDouble) PackedDouble {
	const signMask = 0x7FFF_FFFF_FFFF_FFFF
	return PackedDouble{
		math.Float64frombits(math.Float64bits(v[0]) & signMask),
		math.Float64frombits(math.Float64bits(v[1]) & signMask),
	}
}

// maxPD returns the lane-wise maximum of v and DBL_MIN, so a zero, negative
// or subnormal FDIV_M result lane becomes DBL_MIN. math.Max semantics
// apply: a NaN lane stays NaN and a +Inf lane stays +Inf.
func maxPD(v PackedDouble) PackedDouble {
	return PackedDouble{
		math.Max(v[0], dblMin),
		math.Max(v[1], dblMin),
	}
}

const dblMin = 2.2250738585072014e-308 // DBL_MIN, smallest normal positive float64

// RoundingMode selects the IEEE-754 rounding direction applied to the five
// float ops (FADD/FSUB/FMUL/FDIV/FSQRT). Go has no portable FPU control
// word, so each op applies its rounding explicitly via the roundedBinOp/
// roundedSqrt family below instead of a global mode switch.
type RoundingMode uint8

const (
	RoundNearest RoundingMode = iota
	RoundDown
	RoundUp
	RoundTowardZero
)

func setRoundMode(m uint64) RoundingMode {
	return RoundingMode(m & 3)
}

// bigRoundingMode maps a RoundingMode onto the big.RoundingMode the
// reference implementation's own workaround uses (the reference grounds
// directed rounding on math/big.Float.SetMode rather than an FPU control
// word, since Go has no portable equivalent of the latter).
func bigRoundingMode(mode RoundingMode) big.RoundingMode {
	switch mode {
	case RoundDown:
		return big.ToNegativeInf
	case RoundUp:
		return big.ToPositiveInf
	case RoundTowardZero:
		return big.ToZero
	default:
		return big.ToNearestEven
	}
}

// roundedBinOp performs a float64 binary op at 53-bit precision, rounding
// the inexact result in the direction mode selects instead of Go's fixed
// round-to-nearest. a and b are each exact at 53 bits (every float64 is),
// so only the result's rounding step — where apply trims the exact
// mathematical value back down to 53 bits — is affected by mode. Cases
// IEEE-754 defines as NaN (a NaN operand, 0/0, Inf/Inf, Inf-Inf, 0*Inf)
// return NaN.
func roundedBinOp(a, b float64, mode RoundingMode, apply func(z, x, y *big.Float) *big.Float) (out float64) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(big.ErrNaN); !ok {
				panic(r)
			}
			out = math.NaN()
		}
	}()
	x := new(big.Float).SetPrec(53).SetFloat64(a)
	y := new(big.Float).SetPrec(53).SetFloat64(b)
	z := new(big.Float).SetPrec(53).SetMode(bigRoundingMode(mode))
	apply(z, x, y)
	out, _ = z.Float64()
	return out
}

func roundedAdd(a, b float64, mode RoundingMode) float64 {
	return roundedBinOp(a, b, mode, (*big.Float).Add)
}

func roundedSub(a, b float64, mode RoundingMode) float64 {
	return roundedBinOp(a, b, mode, (*big.Float).Sub)
}

func roundedMul(a, b float64, mode RoundingMode) float64 {
	return roundedBinOp(a, b, mode, (*big.Float).Mul)
}

func roundedQuo(a, b float64, mode RoundingMode) float64 {
	return roundedBinOp(a, b, mode, (*big.Float).Quo)
}

// roundedSqrt is FSQRT_R's directed-rounding counterpart to roundedBinOp:
// the root is taken at 128 bits, then rounded to 53 bits in the direction
// mode selects. A negative or NaN operand returns NaN.
func roundedSqrt(a float64, mode RoundingMode) float64 {
	if !(a >= 0) {
		return math.NaN()
	}
	x := new(big.Float).SetPrec(53).SetFloat64(a)
	root := new(big.Float).SetPrec(128).Sqrt(x)
	z := new(big.Float).SetPrec(53).SetMode(bigRoundingMode(mode)).Set(root)
	out, _ := z.Float64()
	return out
}

// conditionCode selects one of the eight condition predicates used by
// COND_R/COND_M. This resolves the Open Question in spec.md §9: the
// reference scheme's CBRANCH condition mask generalizes here to eight
// explicit comparisons between x and imm, each taken over the full 64-bit
// width (the reference's per-bit condition mask is a register-zero test;
// this module's COND_R/COND_M compare values directly, which is the
// documented resolution for this port).
type conditionCode uint8

const (
	condEqual conditionCode = iota
	condNotEqual
	condUnsignedLess
	condUnsignedLessEqual
	condUnsignedGreater
	condUnsignedGreaterEqual
	condSignedLess
	condSignedGreaterEqual
)

// condition evaluates the predicate selected by code over x and imm.
func condition(x, imm uint64, code uint8) bool {
	switch conditionCode(code & 7) {
	case condEqual:
		return x == imm
	case condNotEqual:
		return x != imm
	case condUnsignedLess:
		return x < imm
	case condUnsignedLessEqual:
		return x <= imm
	case condUnsignedGreater:
		return x > imm
	case condUnsignedGreaterEqual:
		return x >= imm
	case condSignedLess:
		return int64(x) < int64(imm)
	case condSignedGreaterEqual:
		return int64(x) >= int64(imm)
	}
	return false
}
