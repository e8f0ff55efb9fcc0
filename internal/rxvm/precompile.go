package rxvm

// Precompile lowers a raw Program into 256 dispatch records, binding
// operand indices, memory masks, and magic-number division constants
// (spec §4.D). Running Precompile twice over the same Program yields
// identical records, since the only state it reads is the program itself.
func Precompile(p *Program) *[ProgramLength]DispatchRecord {
	var out [ProgramLength]DispatchRecord
	for i := 0; i < ProgramLength; i++ {
		out[i] = precompileOne(p.Slots[i])
	}
	return &out
}

func memMaskFor(mod byte) uint32 {
	if mod&3 != 0 {
		return maskL1
	}
	return maskL2
}

func precompileOne(raw RawInstruction) DispatchRecord {
	dst8 := int(raw.Dst) & (RegistersCount - 1)
	src8 := int(raw.Src) & (RegistersCount - 1)
	dst4 := dst8 & 3
	src4 := src8 & 3

	switch kindOf(raw.Opcode) {

	case KindIAddR, KindISubR, KindIMulR, KindIXorR, KindIRorR, KindIRolR:
		rec := DispatchRecord{Kind: kindOf(raw.Opcode), IDst: dst8, ISrc: src8}
		if src8 == dst8 {
			rec.UseImm = true
			rec.Imm = signExtend2sCompl(raw.Imm32)
		}
		return rec

	case KindIAddRC:
		return DispatchRecord{
			Kind: KindIAddRC, IDst: dst8, ISrc: src8,
			Imm: signExtend2sCompl(raw.Imm32),
		}

	case KindIAddM, KindISubM, KindIMulM, KindIXorM, KindIMulhM, KindISmulhM:
		rec := DispatchRecord{Kind: kindOf(raw.Opcode), IDst: dst8, ISrc: src8}
		if src8 == dst8 {
			rec.UseImm = true
			rec.Imm = uint64(raw.Imm32)
			rec.MemMask = maskL3
		} else {
			rec.MemMask = memMaskFor(raw.Mod)
		}
		return rec

	case KindIMul9C:
		return DispatchRecord{
			Kind: KindIMul9C, IDst: dst8,
			UseImm: true, Imm: signExtend2sCompl(raw.Imm32),
		}

	case KindIMulhR, KindISmulhR:
		return DispatchRecord{Kind: kindOf(raw.Opcode), IDst: dst8, ISrc: src8}

	case KindINegR:
		return DispatchRecord{Kind: KindINegR, IDst: dst8}

	case KindISwapR:
		if src8 == dst8 {
			return DispatchRecord{Kind: KindNop}
		}
		return DispatchRecord{Kind: KindISwapR, IDst: dst8, ISrc: src8}

	case KindIDivC:
		if raw.Imm32 == 0 {
			return DispatchRecord{Kind: KindNop}
		}
		return DispatchRecord{
			Kind: KindIDivC, IDst: dst8,
			magic: computeMagicDivision(raw.Imm32),
		}

	case KindISdivC, KindFMulM, KindFDivR, KindFStore, KindNop:
		return DispatchRecord{Kind: KindNop}

	case KindFSwapR:
		return DispatchRecord{Kind: KindFSwapR, IDst: dst4}

	case KindFAddR, KindFSubR:
		return DispatchRecord{Kind: kindOf(raw.Opcode), IDst: dst4, ISrc: src4}

	case KindFAddM, KindFSubM:
		return DispatchRecord{
			Kind: kindOf(raw.Opcode), IDst: dst4, ISrc: src8,
			MemMask: memMaskFor(raw.Mod),
		}

	case KindFScalR:
		return DispatchRecord{Kind: KindFScalR, IDst: dst4}

	case KindFMulR:
		return DispatchRecord{Kind: KindFMulR, IDst: dst4, ISrc: src4}

	case KindFDivM:
		return DispatchRecord{
			Kind: KindFDivM, IDst: dst4, ISrc: src8,
			MemMask: memMaskFor(raw.Mod),
		}

	case KindFSqrtR:
		return DispatchRecord{Kind: KindFSqrtR, IDst: dst4}

	case KindCondR:
		return DispatchRecord{
			Kind: KindCondR, IDst: dst8, ISrc: src8,
			Condition: (raw.Mod >> 2) & 7,
			Imm:       uint64(raw.Imm32),
		}

	case KindCondM:
		return DispatchRecord{
			Kind: KindCondM, IDst: dst8, ISrc: src8,
			Condition: (raw.Mod >> 2) & 7,
			Imm:       uint64(raw.Imm32),
			MemMask:   memMaskFor(raw.Mod),
		}

	case KindCfRound:
		return DispatchRecord{Kind: KindCfRound, ISrc: src8, Imm: uint64(raw.Imm32) & 63}

	case KindIStore:
		mask := uint32(maskL2)
		if raw.Mod&3 != 0 {
			mask = maskL1
		}
		return DispatchRecord{Kind: KindIStore, IDst: dst8, ISrc: src8, MemMask: mask}

	default:
		return DispatchRecord{Kind: KindNop}
	}
}
