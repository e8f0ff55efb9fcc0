package rxvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgramFromBytesStabilizesIndices(t *testing.T) {
	bytes := make([]byte, ProgramLength*8)
	bytes[1] = 200 // dst
	bytes[2] = 201 // src
	p := NewProgramFromBytes(bytes)
	assert.Less(t, int(p.Slots[0].Dst), RegistersCount)
	assert.Less(t, int(p.Slots[0].Src), RegistersCount)
}

func TestNewProgramFromBytesPanicsOnShortInput(t *testing.T) {
	require.Panics(t, func() {
		NewProgramFromBytes(make([]byte, 10))
	})
}

func TestDecodeRawInstructionFieldOrder(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	raw := decodeRawInstruction(b)
	assert.Equal(t, byte(0x01), raw.Opcode)
	assert.Equal(t, byte(0x02), raw.Dst)
	assert.Equal(t, byte(0x03), raw.Src)
	assert.Equal(t, byte(0x04), raw.Mod)
	assert.Equal(t, uint32(0x08070605), raw.Imm32)
}
