package rxvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawWithOpcode(kind InstructionKind, dst, src, mod byte, imm32 uint32) RawInstruction {
	var opcode byte
	pos := 0
	for k := InstructionKind(0); k < kind; k++ {
		pos += opcodeFrequency[k]
	}
	opcode = byte(pos)
	return RawInstruction{Opcode: opcode, Dst: dst, Src: src, Mod: mod, Imm32: imm32}
}

func TestKindOfMatchesFrequencyTable(t *testing.T) {
	total := 0
	for k := InstructionKind(0); k < kindCount; k++ {
		total += opcodeFrequency[k]
	}
	require.Equal(t, 256, total)

	for k := InstructionKind(0); k < kindCount; k++ {
		raw := rawWithOpcode(k, 0, 0, 0, 0)
		assert.Equal(t, k, kindOf(raw.Opcode), "kind %d", k)
	}
}

func TestPrecompileRegisterFormImmediateFallback(t *testing.T) {
	raw := rawWithOpcode(KindIAddR, 3, 3, 0, 42)
	rec := precompileOne(raw)
	assert.True(t, rec.UseImm)
	assert.Equal(t, signExtend2sCompl(42), rec.Imm)
	assert.Equal(t, 3, rec.IDst)
}

func TestPrecompileRegisterFormNoFallback(t *testing.T) {
	raw := rawWithOpcode(KindIAddR, 3, 5, 0, 42)
	rec := precompileOne(raw)
	assert.False(t, rec.UseImm)
	assert.Equal(t, 5, rec.ISrc)
}

func TestPrecompileISwapRSameRegisterIsNop(t *testing.T) {
	raw := rawWithOpcode(KindISwapR, 2, 2, 0, 0)
	rec := precompileOne(raw)
	assert.Equal(t, KindNop, rec.Kind)
}

func TestPrecompileIDivCZeroDivisorIsNop(t *testing.T) {
	raw := rawWithOpcode(KindIDivC, 1, 0, 0, 0)
	rec := precompileOne(raw)
	assert.Equal(t, KindNop, rec.Kind)
}

func TestPrecompileIDivCNonzero(t *testing.T) {
	raw := rawWithOpcode(KindIDivC, 1, 0, 0, 7)
	rec := precompileOne(raw)
	assert.Equal(t, KindIDivC, rec.Kind)
	assert.Equal(t, uint64(700)/7, rec.magic.quotient(700))
}

func TestPrecompileMemoryFormMemMask(t *testing.T) {
	raw := rawWithOpcode(KindIAddM, 1, 2, 0, 0) // mod&3==0 -> L2
	rec := precompileOne(raw)
	assert.Equal(t, uint32(maskL2), rec.MemMask)

	raw2 := rawWithOpcode(KindIAddM, 1, 2, 1, 0) // mod&3!=0 -> L1
	rec2 := precompileOne(raw2)
	assert.Equal(t, uint32(maskL1), rec2.MemMask)
}

func TestPrecompileMemoryFormSameRegisterUsesImmediate(t *testing.T) {
	raw := rawWithOpcode(KindIAddM, 4, 4, 0, 0xDEADBEEF)
	rec := precompileOne(raw)
	assert.True(t, rec.UseImm)
	assert.Equal(t, uint64(0xDEADBEEF), rec.Imm)
	assert.Equal(t, uint32(maskL3), rec.MemMask)
}

func TestPrecompileAlwaysNopKinds(t *testing.T) {
	for _, k := range []InstructionKind{KindISdivC, KindFMulM, KindFDivR, KindFStore} {
		raw := rawWithOpcode(k, 1, 2, 3, 4)
		rec := precompileOne(raw)
		assert.Equal(t, KindNop, rec.Kind)
	}
}

func TestPrecompileCondRFields(t *testing.T) {
	raw := rawWithOpcode(KindCondR, 1, 2, 0b0001_1100, 99) // condition bits = (mod>>2)&7 = 0b111 = 7
	rec := precompileOne(raw)
	assert.Equal(t, uint8(7), rec.Condition)
	assert.Equal(t, uint64(99), rec.Imm)
}

func TestPrecompileIdempotent(t *testing.T) {
	bytes := make([]byte, ProgramLength*8)
	for i := range bytes {
		bytes[i] = byte(i * 37)
	}
	p := NewProgramFromBytes(bytes)
	r1 := Precompile(p)
	r2 := Precompile(p)
	assert.Equal(t, *r1, *r2)
}
