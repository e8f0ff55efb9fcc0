package rxvm

import (
	"github.com/extenami/RandomX/internal/crypto"
	"github.com/extenami/RandomX/pkg/log"
)

// CacheLineSize is the width of one dataset/scratchpad-mixing line (spec §6).
const CacheLineSize = 64

// CacheLineAlignMask keeps a 32-bit address 64-byte aligned (spec §6).
const CacheLineAlignMask = 0xFFFFFFC0

// InstructionCount is the number of interpreter passes one nonce's
// execution performs (spec §6).
const InstructionCount = 2048

// Mode selects how dataset lines are sourced (spec §4.F).
type Mode uint8

const (
	// ModeLight recomputes every dataset line from the 256 MiB cache.
	ModeLight Mode = iota
	// ModeLightAsync is ModeLight with the async prefetch worker enabled
	// (spec §4.H).
	ModeLightAsync
	// ModeFull looks up lines in a resident 4 GiB dataset.
	ModeFull
)

// ReadRegs holds the four scratchpad-address-stream register indices the
// expander fixes for the duration of one nonce's execution (spec §4.G/§9).
// This module's chosen derivation (documented in DESIGN.md under Open
// Question decisions) takes them from the low bits of the seed hash:
// readReg0 = 0 + bit0, readReg1 = 2 + bit1, readReg2 = 4 + bit2,
// readReg3 = 6 + bit3, each bit taken from consecutive bytes of the hash.
type ReadRegs struct {
	R0, R1, R2, R3 int
}

func deriveReadRegs(seedHash crypto.Hash) ReadRegs {
	return ReadRegs{
		R0: 0 + int(seedHash[0]&1),
		R1: 2 + int(seedHash[1]&1),
		R2: 4 + int(seedHash[2]&1),
		R3: 6 + int(seedHash[3]&1),
	}
}

// VM is one reusable proof-of-work execution context: its scratchpad and
// dispatch buffer are allocated once and reused across nonces (spec §3's
// lifecycle contract).
type VM struct {
	mode Mode

	cache   *Cache
	dataset *Dataset
	async   *asyncWorker
	source  BlockSource

	expander   Expander
	seedHasher SeedHasher
	finalizer  Finalizer

	sp          *Scratchpad
	regs        Registers
	interpreter *Interpreter

	mem struct {
		ma, mx uint64
	}
	read ReadRegs
}

// NewVM constructs a VM bound to either a light Cache or a full Dataset,
// per mode. Exactly one of cache/dataset is used, matching spec §4.F's
// "two modes selected at construction".
func NewVM(mode Mode, cache *Cache, dataset *Dataset) (*VM, error) {
	vm := &VM{
		mode:        mode,
		cache:       cache,
		dataset:     dataset,
		expander:    AesExpander{},
		seedHasher:  Blake2bSeedHasher{},
		finalizer:   AesFinalizer{},
		sp:          NewScratchpad(),
		interpreter: NewInterpreter(),
	}

	switch mode {
	case ModeFull:
		if dataset == nil {
			return nil, &ErrMisuse{Reason: "NewVM: ModeFull requires a non-nil dataset"}
		}
		vm.source = datasetSource{dataset}
	case ModeLight:
		if cache == nil {
			return nil, &ErrMisuse{Reason: "NewVM: ModeLight requires a non-nil cache"}
		}
		vm.source = &lightSource{cache: cache}
	case ModeLightAsync:
		if cache == nil {
			return nil, &ErrMisuse{Reason: "NewVM: ModeLightAsync requires a non-nil cache"}
		}
		vm.async = newAsyncWorker(cache)
	default:
		return nil, &ErrMisuse{Reason: "NewVM: unknown mode"}
	}
	return vm, nil
}

// Close releases the async worker goroutine, if any. Safe to call once.
func (vm *VM) Close() {
	if vm.async != nil {
		vm.async.stop()
	}
}

// Execute computes the 256-bit proof-of-work digest for seed and nonceBlob,
// implementing the full per-nonce pipeline of spec §2: expander → Program →
// Precompiler → dispatch records; then the §4.G loop; then the finalizer.
func (vm *VM) Execute(seed []byte, nonceBlob []byte) crypto.Hash {
	seedHash := vm.seedHasher.Hash(append(append([]byte{}, seed...), nonceBlob...))
	vm.read = deriveReadRegs(seedHash)

	programBytes := make([]byte, ProgramLength*8)
	vm.expander.Expand(seedHash, programBytes)
	program := NewProgramFromBytes(programBytes)
	records := Precompile(program)

	scratchpadSeed := make([]byte, ScratchpadSize)
	vm.expander.Expand(deriveKeySeed(seedHash), scratchpadSeed)
	vm.sp.Seed(scratchpadSeed)

	vm.regs = Registers{}
	for i := range vm.regs.A {
		vm.regs.A[i] = loadCvtI32x2(scratchpadSeed[(i*8)%len(scratchpadSeed):])
	}

	vm.mem.mx = 0
	vm.mem.ma = 0

	if vm.async != nil {
		if vm.async.prepared {
			// Consume the prefetch the previous Execute issued after its
			// last iteration, so the first getBlock sees this nonce's line.
			vm.async.getBlock(vm.async.preparedAt)
		}
		vm.async.prepareBlock(vm.mem.ma / CacheLineSize)
	}

	log.VM.Debug().Int("readReg0", vm.read.R0).Msg("starting per-nonce execution")

	for iter := 0; iter < InstructionCount; iter++ {
		vm.runIteration(records)
	}

	return vm.finalizer.Finalize(&vm.regs, vm.sp)
}

func (vm *VM) runIteration(records *[ProgramLength]DispatchRecord) {
	r := &vm.regs

	spAddr0 := vm.mem.mx
	spAddr0 ^= r.R[vm.read.R0]
	spAddr0 &= maskL3x64

	for k := 0; k < RegistersCount; k++ {
		r.R[k] ^= vm.sp.Load64(uint32(spAddr0)+uint32(k*8), ^uint32(0))
	}

	spAddr1 := vm.mem.ma
	spAddr1 ^= r.R[vm.read.R1]
	spAddr1 &= maskL3x64

	for k := 0; k < RegistersCount/2; k++ {
		r.F[k] = loadCvtI32x2(vm.sp.Bytes()[uint32(spAddr1)+uint32(k*8):])
	}
	for k := 0; k < RegistersCount/2; k++ {
		r.E[k] = absPD(loadCvtI32x2(vm.sp.Bytes()[uint32(spAddr1)+32+uint32(k*8):]))
	}

	vm.interpreter.Run(records, r, vm.sp)

	var line [CacheLineSize]byte
	switch {
	case vm.async != nil:
		line = vm.async.getBlock(vm.mem.ma / CacheLineSize)
	default:
		copy(line[:], vm.source.Line(vm.mem.ma/CacheLineSize))
	}
	for k := 0; k < RegistersCount; k++ {
		r.R[k] ^= leUint64(line[k*8 : k*8+8])
	}

	vm.mem.mx ^= r.R[vm.read.R2] ^ r.R[vm.read.R3]
	vm.mem.mx &= CacheLineAlignMask

	vm.mem.mx, vm.mem.ma = vm.mem.ma, vm.mem.mx

	if vm.async != nil {
		vm.async.prepareBlock(vm.mem.ma / CacheLineSize)
	}

	for k := 0; k < RegistersCount; k++ {
		vm.sp.Store64(uint32(spAddr1)+uint32(k*8), ^uint32(0), r.R[k])
	}
	for k := 0; k < RegistersCount/2; k++ {
		product := PackedDouble{r.F[k][0] * r.E[k][0], r.F[k][1] * r.E[k][1]}
		storePD(vm.sp, uint32(spAddr0)+uint32(k*16), product)
	}
}

func leUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func storePD(sp *Scratchpad, addr uint32, v PackedDouble) {
	buf := sp.Bytes()
	putFloat64(buf[addr:addr+8], v[0])
	putFloat64(buf[addr+8:addr+16], v[1])
}
