package rxvm

// RegistersCount is the number of integer and floating-point register
// lanes in each file (spec §3).
const RegistersCount = 8

// PackedDouble is a pair of IEEE-754 doubles, the unit the f/e/a register
// files operate on (spec §3/§4.C).
type PackedDouble [2]float64

// Registers is the full machine register state for one VM instance: eight
// 64-bit integer registers and three floating-point files of four packed
// doubles each (f, e, a), matching spec §3's layout.
type Registers struct {
	R [RegistersCount]uint64
	F [RegistersCount / 2]PackedDouble
	E [RegistersCount / 2]PackedDouble
	A [RegistersCount / 2]PackedDouble
}

// Reset zeroes all four register files (r, f, e and a).
func (r *Registers) Reset() {
	*r = Registers{}
}
