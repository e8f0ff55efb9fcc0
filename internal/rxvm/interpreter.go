package rxvm

import "math"

// Interpreter executes one precompiled program's 256 dispatch records
// against a register file and scratchpad (spec §4.E). It carries no state
// of its own between calls beyond the current rounding mode, which CFROUND
// can change mid-program.
type Interpreter struct {
	round RoundingMode
}

// NewInterpreter returns an Interpreter with the default round-to-nearest
// mode.
func NewInterpreter() *Interpreter {
	return &Interpreter{round: RoundNearest}
}

// Run executes every dispatch record once, in order, mutating regs and sp.
// There are no backward branches inside a program; iteration-level looping
// belongs to the per-nonce loop (§4.G), not here.
func (in *Interpreter) Run(records *[ProgramLength]DispatchRecord, regs *Registers, sp *Scratchpad) {
	for i := range records {
		in.step(&records[i], regs, sp)
	}
}

func (in *Interpreter) step(rec *DispatchRecord, regs *Registers, sp *Scratchpad) {
	readInt := func(idx int) uint64 {
		if rec.UseImm {
			return rec.Imm
		}
		return regs.R[idx]
	}

	switch rec.Kind {
	case KindIAddR:
		regs.R[rec.IDst] += readInt(rec.ISrc)
	case KindISubR:
		regs.R[rec.IDst] -= readInt(rec.ISrc)
	case KindIMulR:
		regs.R[rec.IDst] *= readInt(rec.ISrc)
	case KindIXorR:
		regs.R[rec.IDst] ^= readInt(rec.ISrc)
	case KindIRorR:
		regs.R[rec.IDst] = rotr(regs.R[rec.IDst], uint(readInt(rec.ISrc)&63))
	case KindIRolR:
		regs.R[rec.IDst] = rotl(regs.R[rec.IDst], uint(readInt(rec.ISrc)&63))

	case KindIAddRC:
		regs.R[rec.IDst] += regs.R[rec.ISrc] + rec.Imm

	case KindIAddM:
		regs.R[rec.IDst] += in.loadMemOperand(rec, regs, sp)
	case KindISubM:
		regs.R[rec.IDst] -= in.loadMemOperand(rec, regs, sp)
	case KindIMulM:
		regs.R[rec.IDst] *= in.loadMemOperand(rec, regs, sp)
	case KindIXorM:
		regs.R[rec.IDst] ^= in.loadMemOperand(rec, regs, sp)
	case KindIMulhM:
		regs.R[rec.IDst] = mulh(regs.R[rec.IDst], in.loadMemOperand(rec, regs, sp))
	case KindISmulhM:
		regs.R[rec.IDst] = smulh(int64(regs.R[rec.IDst]), int64(in.loadMemOperand(rec, regs, sp)))

	case KindIMul9C:
		regs.R[rec.IDst] = 9*regs.R[rec.IDst] + rec.Imm

	case KindIMulhR:
		regs.R[rec.IDst] = mulh(regs.R[rec.IDst], regs.R[rec.ISrc])
	case KindISmulhR:
		regs.R[rec.IDst] = smulh(int64(regs.R[rec.IDst]), int64(regs.R[rec.ISrc]))

	case KindINegR:
		regs.R[rec.IDst] = -regs.R[rec.IDst]

	case KindISwapR:
		regs.R[rec.IDst], regs.R[rec.ISrc] = regs.R[rec.ISrc], regs.R[rec.IDst]

	case KindIDivC:
		regs.R[rec.IDst] += rec.magic.quotient(regs.R[rec.IDst])

	case KindFSwapR:
		regs.F[rec.IDst][0], regs.F[rec.IDst][1] = regs.F[rec.IDst][1], regs.F[rec.IDst][0]

	case KindFAddR:
		regs.F[rec.IDst] = in.addPD(regs.F[rec.IDst], regs.A[rec.ISrc])
	case KindFSubR:
		regs.F[rec.IDst] = in.subPD(regs.F[rec.IDst], regs.A[rec.ISrc])

	case KindFAddM:
		v := sp.LoadPD(uint32(regs.R[rec.ISrc]), rec.MemMask)
		regs.F[rec.IDst] = in.addPD(regs.F[rec.IDst], v)
	case KindFSubM:
		v := sp.LoadPD(uint32(regs.R[rec.ISrc]), rec.MemMask)
		regs.F[rec.IDst] = in.subPD(regs.F[rec.IDst], v)

	case KindFScalR:
		const signExpFlip = 0x81F0_0000_0000_0000
		regs.F[rec.IDst][0] = math.Float64frombits(math.Float64bits(regs.F[rec.IDst][0]) ^ signExpFlip)
		regs.F[rec.IDst][1] = math.Float64frombits(math.Float64bits(regs.F[rec.IDst][1]) ^ signExpFlip)

	case KindFMulR:
		regs.E[rec.IDst] = in.mulPD(regs.E[rec.IDst], regs.A[rec.ISrc])

	case KindFDivM:
		v := sp.LoadPD(uint32(regs.R[rec.ISrc]), rec.MemMask)
		regs.E[rec.IDst] = maxPD(in.divPD(regs.E[rec.IDst], v))

	case KindFSqrtR:
		regs.E[rec.IDst] = PackedDouble{
			roundedSqrt(regs.E[rec.IDst][0], in.round),
			roundedSqrt(regs.E[rec.IDst][1], in.round),
		}

	case KindCondR:
		if condition(regs.R[rec.ISrc], rec.Imm, rec.Condition) {
			regs.R[rec.IDst]++
		}
	case KindCondM:
		v := sp.Load64(uint32(regs.R[rec.ISrc]), rec.MemMask)
		if condition(v, rec.Imm, rec.Condition) {
			regs.R[rec.IDst]++
		}

	case KindCfRound:
		in.round = setRoundMode(rotr(regs.R[rec.ISrc], uint(rec.Imm)))

	case KindIStore:
		sp.Store64(uint32(regs.R[rec.IDst]), rec.MemMask, regs.R[rec.ISrc])

	case KindNop:
		// no effect

	case KindISdivC, KindFMulM, KindFDivR, KindFStore:
		// lowered to NOP at precompile time; dispatch records of these
		// kinds never actually carry this Kind value, but the case is
		// kept exhaustive for documentation.

	default:
		// unreachable for a correctly precompiled program
	}
}

// loadMemOperand resolves the *_M family's memory operand: the address is
// either a register (the common case) or, when src==dst forced the
// immediate-fallback at precompile time, the raw imm32 itself zero-extended
// (spec §4.D's IADD_M row) — either way the value actually consumed by the
// op is still the scratchpad line at that address.
func (in *Interpreter) loadMemOperand(rec *DispatchRecord, regs *Registers, sp *Scratchpad) uint64 {
	addr := regs.R[rec.ISrc]
	if rec.UseImm {
		addr = rec.Imm
	}
	return sp.Load64(uint32(addr), rec.MemMask)
}

func (in *Interpreter) addPD(a, b PackedDouble) PackedDouble {
	return PackedDouble{roundedAdd(a[0], b[0], in.round), roundedAdd(a[1], b[1], in.round)}
}

func (in *Interpreter) subPD(a, b PackedDouble) PackedDouble {
	return PackedDouble{roundedSub(a[0], b[0], in.round), roundedSub(a[1], b[1], in.round)}
}

func (in *Interpreter) mulPD(a, b PackedDouble) PackedDouble {
	return PackedDouble{roundedMul(a[0], b[0], in.round), roundedMul(a[1], b[1], in.round)}
}

func (in *Interpreter) divPD(a, b PackedDouble) PackedDouble {
	return PackedDouble{roundedQuo(a[0], b[0], in.round), roundedQuo(a[1], b[1], in.round)}
}
