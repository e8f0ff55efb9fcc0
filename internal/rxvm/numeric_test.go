package rxvm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulh(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
	}{
		{"zero", 0, 0},
		{"one", 1, 1},
		{"max_times_max", ^uint64(0), ^uint64(0)},
		{"mixed", 0x1234_5678_9ABC_DEF0, 0xFEDC_BA98_7654_3210},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mulh(tt.a, tt.b)
			want := referenceMulh(tt.a, tt.b)
			assert.Equal(t, want, got)
		})
	}
}

func referenceMulh(a, b uint64) uint64 {
	prod := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	prod.Rsh(prod, 64)
	return prod.Uint64()
}

func TestSmulh(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
	}{
		{"both_positive", 123456789, 987654321},
		{"a_negative", -123456789, 987654321},
		{"b_negative", 123456789, -987654321},
		{"both_negative", -123456789, -987654321},
		{"min_values", -1 << 63, -1 << 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := smulh(tt.a, tt.b)
			want := referenceSmulh(tt.a, tt.b)
			assert.Equal(t, want, got)
		})
	}
}

func referenceSmulh(a, b int64) uint64 {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	prod.Rsh(prod, 64)
	return uint64(prod.Int64())
}

func TestRotrRotl(t *testing.T) {
	require.Equal(t, uint64(0x8000_0000_0000_0000), rotr(1, 1))
	require.Equal(t, uint64(1), rotl(0x8000_0000_0000_0000, 1))
	assert.Equal(t, uint64(0xF), rotr(0xF0, 4))
	assert.Equal(t, uint64(0xF0), rotl(0xF, 4))
}

func TestSignExtend2sCompl(t *testing.T) {
	assert.Equal(t, uint64(0), signExtend2sCompl(0))
	assert.Equal(t, uint64(1), signExtend2sCompl(1))
	assert.Equal(t, ^uint64(0), signExtend2sCompl(0xFFFFFFFF))
	assert.Equal(t, uint64(0xFFFF_FFFF_8000_0000), signExtend2sCompl(0x8000_0000))
}

func TestLoadCvtI32x2(t *testing.T) {
	b := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x00, 0x00, 0x00}
	pd := loadCvtI32x2(b)
	assert.Equal(t, float64(-1), pd[0])
	assert.Equal(t, float64(1), pd[1])
}

func TestAbsPD(t *testing.T) {
	v := PackedDouble{-2.5, -3.5}
	got := absPD(v)
	assert.Equal(t, PackedDouble{2.5, 3.5}, got)
}

func TestRoundedQuoDirectionChangesBitPattern(t *testing.T) {
	down := roundedQuo(1, 3, RoundDown)
	up := roundedQuo(1, 3, RoundUp)
	nearest := roundedQuo(1, 3, RoundNearest)
	assert.NotEqual(t, down, up, "1/3 is inexact at 53 bits, so the two directions must straddle it")
	assert.True(t, down < up)
	assert.True(t, nearest == down || nearest == up)
}

func TestRoundedAddDirectionChangesBitPattern(t *testing.T) {
	tiny := 0x1p-60
	down := roundedAdd(1, tiny, RoundDown)
	up := roundedAdd(1, tiny, RoundUp)
	assert.Equal(t, float64(1), down, "rounding 1+2^-60 toward -Inf truncates back to 1")
	assert.Greater(t, up, float64(1), "rounding 1+2^-60 toward +Inf must land on the next representable value above 1")
}

func TestRoundedSqrtDirectionChangesBitPattern(t *testing.T) {
	down := roundedSqrt(2, RoundDown)
	up := roundedSqrt(2, RoundUp)
	assert.NotEqual(t, down, up, "sqrt(2) is inexact at 53 bits, so the two directions must straddle it")
}

func TestCondition(t *testing.T) {
	tests := []struct {
		name string
		x    uint64
		imm  uint64
		code uint8
		want bool
	}{
		{"eq_true", 5, 5, 0, true},
		{"eq_false", 5, 6, 0, false},
		{"neq_true", 5, 6, 1, true},
		{"ult_true", 1, 2, 2, true},
		{"ule_equal", 2, 2, 3, true},
		{"ugt_true", 3, 2, 4, true},
		{"uge_equal", 2, 2, 5, true},
		{"slt_true", ^uint64(0), 0, 6, true}, // -1 < 0 signed
		{"sge_true", 0, ^uint64(0), 7, true}, // 0 >= -1 signed
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, condition(tt.x, tt.imm, tt.code))
		})
	}
}
