package rxvm

// InstructionKind is the canonical instruction identified by an opcode
// byte after the weight-table lookup (spec §3/§4.D).
type InstructionKind uint8

const (
	KindIAddR InstructionKind = iota
	KindIAddRC
	KindISubR
	KindIMulR
	KindIXorR
	KindIRorR
	KindIRolR
	KindIAddM
	KindISubM
	KindIMulM
	KindIXorM
	KindIMulhM
	KindISmulhM
	KindIMul9C
	KindIMulhR
	KindISmulhR
	KindINegR
	KindISwapR
	KindIDivC
	KindISdivC
	KindFSwapR
	KindFAddR
	KindFSubR
	KindFAddM
	KindFSubM
	KindFScalR
	KindFMulR
	KindFMulM
	KindFDivR
	KindFDivM
	KindFSqrtR
	KindCondR
	KindCondM
	KindCfRound
	KindIStore
	KindFStore
	KindNop
	kindCount
)

// opcodeFrequency pairs a canonical kind with how many of the 256 opcode
// byte values map to it. The table is built from contiguous ranges at
// package init, the same shape as the RandomX reference's opcode-range
// switch ladder. This module folds the reference's IADD_RS-with-shift into
// the plain IADD_R row (spec §4.D has no IADD_RS row) and splits the
// reference's combined COND_R/COND_M share evenly, per the Open Question
// decisions recorded in DESIGN.md.
var opcodeFrequency = [kindCount]int{
	KindIAddR:   16,
	KindIAddRC:  2,
	KindISubR:   15,
	KindIMulR:   20,
	KindIXorR:   16,
	KindIRorR:   8,
	KindIRolR:   2,
	KindIAddM:   6,
	KindISubM:   6,
	KindIMulM:   3,
	KindIXorM:   3,
	KindIMulhM:  1,
	KindISmulhM: 1,
	KindIMul9C:  7,
	KindIMulhR:  4,
	KindISmulhR: 4,
	KindINegR:   2,
	KindISwapR:  4,
	KindIDivC:   4,
	KindISdivC:  1,
	KindFSwapR:  4,
	KindFAddR:   14,
	KindFSubR:   14,
	KindFAddM:   5,
	KindFSubM:   5,
	KindFScalR:  5,
	KindFMulR:   30,
	KindFMulM:   1,
	KindFDivR:   1,
	KindFDivM:   4,
	KindFSqrtR:  5,
	KindCondR:   13,
	KindCondM:   13,
	KindCfRound: 1,
	KindIStore:  14,
	KindFStore:  1,
	KindNop:     1,
}

var opcodeTable = buildOpcodeTable()

// buildOpcodeTable expands opcodeFrequency into a dense [256]InstructionKind
// lookup, one entry per possible opcode byte, assigning contiguous ranges
// in declaration order.
func buildOpcodeTable() [256]InstructionKind {
	var table [256]InstructionKind
	pos := 0
	for kind := InstructionKind(0); kind < kindCount; kind++ {
		n := opcodeFrequency[kind]
		for i := 0; i < n; i++ {
			table[pos] = kind
			pos++
		}
	}
	if pos != 256 {
		panic(&ErrMisuse{Reason: "opcode frequency table does not sum to 256"})
	}
	return table
}

// kindOf maps a raw opcode byte to its canonical instruction kind.
func kindOf(opcode byte) InstructionKind {
	return opcodeTable[opcode]
}
