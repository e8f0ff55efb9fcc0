package rxvm

// DispatchRecord is the precompiled form of one program slot: a canonical
// kind plus bound operand indices, replacing the reference implementation's
// raw pointer aliases with register indices and a UseImm flag (spec §9's
// design note).
type DispatchRecord struct {
	Kind InstructionKind

	IDst int
	ISrc int
	// UseImm, when true, means the operand normally read from r[ISrc]
	// should instead read Imm — the src==dst immediate-fallback trick
	// from spec §3's invariants, precomputed instead of pointer-aliased.
	UseImm bool
	Imm    uint64

	MemMask uint32

	// Condition selects one of the eight predicates for COND_R/COND_M.
	Condition uint8

	magic magicDivision
}
