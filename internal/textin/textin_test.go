package textin

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-half/internal/half"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.5", "1.5"},
		{"  2 048 ", "2048"},
		{"−1.25", "-1.25"},
		{"３．５", "3.5"},
		{"1e⁻3", "1e-3"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestParseFloat(t *testing.T) {
	f, err := ParseFloat("−0.5")
	require.NoError(t, err)
	assert.Equal(t, -0.5, f)

	f, err = ParseFloat("1e400")
	require.NoError(t, err)
	assert.True(t, math.IsInf(f, 1))

	f, err = ParseFloat("NaN")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f))

	_, err = ParseFloat("   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseFloat("one")
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestParseHalf(t *testing.T) {
	h, err := ParseHalf("65520")
	require.NoError(t, err)
	assert.Equal(t, half.PositiveInfinity, h)

	h, err = ParseHalf("0.1")
	require.NoError(t, err)
	assert.Equal(t, half.FromBits(0x2e66), h)
}

func TestParseBits(t *testing.T) {
	tests := []struct {
		in   string
		want half.Half
	}{
		{"0x3c00", half.One},
		{"0X7BFF", half.MaxValue},
		{"0b1", half.SmallestSubnormal},
		{"32768", half.NegativeZero},
	}
	for _, tc := range tests {
		h, err := ParseBits(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, h, tc.in)
	}

	_, err := ParseBits("0x10000")
	assert.ErrorIs(t, err, strconv.ErrRange)

	_, err = ParseBits("")
	assert.ErrorIs(t, err, ErrEmpty)
}
