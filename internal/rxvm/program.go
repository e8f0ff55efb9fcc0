package rxvm

// ProgramLength is the fixed number of raw instructions the expander fills
// per program (spec §3/§6).
const ProgramLength = 256

// RawInstruction is one 8-byte record out of the expander's byte stream,
// decoded into its constituent fields (spec §3).
type RawInstruction struct {
	Opcode byte
	Dst    byte
	Src    byte
	Mod    byte
	Imm32  uint32
}

// decodeRawInstruction reads one 8-byte little-endian record: opcode, dst,
// src, mod, then a 4-byte immediate.
func decodeRawInstruction(b []byte) RawInstruction {
	return RawInstruction{
		Opcode: b[0],
		Dst:    b[1],
		Src:    b[2],
		Mod:    b[3],
		Imm32:  uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16 | uint32(b[7])<<24,
	}
}

// Program is the fixed-size sequence of raw instructions produced by the
// expander for one nonce (spec §3/§4.C).
type Program struct {
	Slots [ProgramLength]RawInstruction
}

// NewProgramFromBytes decodes a ProgramLength*8-byte expander output into a
// Program, then stabilizes every slot's Dst/Src fields modulo
// RegistersCount so repeated precompilation is idempotent (spec §4.C).
func NewProgramFromBytes(b []byte) *Program {
	if len(b) < ProgramLength*8 {
		panic(&ErrMisuse{Reason: "program byte stream shorter than ProgramLength*8"})
	}
	p := &Program{}
	for i := 0; i < ProgramLength; i++ {
		instr := decodeRawInstruction(b[i*8 : i*8+8])
		instr.Dst &= RegistersCount - 1
		instr.Src &= RegistersCount - 1
		p.Slots[i] = instr
	}
	return p
}
