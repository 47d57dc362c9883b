package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-half/internal/half"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"1024", 1024},
		{"4GB", 4 << 30},
		{"64MB", 64 << 20},
		{"512K", 512 << 10},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, parseBytes(tc.in), tc.in)
	}
}

func TestDescribe(t *testing.T) {
	row, err := describe("−0.1", false)
	require.NoError(t, err)
	assert.Equal(t, half.FromBits(0xae66), row.Half)
	assert.Equal(t, half.PrecisionInexact, row.Precision)

	row, err = describe("0x7c00", true)
	require.NoError(t, err)
	assert.Equal(t, half.PositiveInfinity, row.Half)
	assert.Equal(t, half.PrecisionExact, row.Precision)

	_, err = describe("abc", false)
	assert.Error(t, err)
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	printRows(&buf, []valueRow{{Input: "1", Half: half.One, Precision: half.PrecisionExact}})
	assert.Contains(t, buf.String(), "0x3c00")
	assert.Contains(t, buf.String(), "exact")
}
