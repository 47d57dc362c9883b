package simd

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-half/internal/half"
)

func halves(vals ...float32) []half.Half {
	out := make([]half.Half, len(vals))
	for i, v := range vals {
		out[i] = half.FromFloat32(v)
	}
	return out
}

func TestWiden(t *testing.T) {
	src := halves(1, -2, 0.5, 65504, 3)
	dst := make([]float32, len(src))

	Widen(dst, src)

	assert.Equal(t, []float32{1, -2, 0.5, 65504, 3}, dst)
}

func TestNarrow(t *testing.T) {
	src := []float32{1, 1e6, -1e-10, 0.1, 2049}
	dst := make([]half.Half, len(src))

	Narrow(dst, src)

	want := []half.Half{half.One, half.PositiveInfinity, half.NegativeZero, half.FromFloat32(0.1), half.FromFloat32(2048)}
	assert.Equal(t, want, dst)
}

func TestNarrowFloat64(t *testing.T) {
	src := []float64{1 + math.Ldexp(1, -11) + math.Ldexp(1, -40), -65504}
	dst := make([]half.Half, len(src))

	NarrowFloat64(dst, src)

	assert.Equal(t, []half.Half{0x3c01, half.MinValue}, dst)
}

func TestNarrow_ShortDestinationPanics(t *testing.T) {
	assert.Panics(t, func() {
		Narrow(make([]half.Half, 1), []float32{1, 2})
	})
	assert.Panics(t, func() {
		Widen(make([]float32, 0), halves(1))
	})
}

func TestNarrowParallel_MatchesSerial(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	src := make([]float32, parallelThreshold*3+17)
	for i := range src {
		src[i] = math.Float32frombits(r.Uint32())
	}

	serial := make([]half.Half, len(src))
	Narrow(serial, src)

	for _, workers := range []int{0, 1, 3, 8} {
		parallel := make([]half.Half, len(src))
		NarrowParallel(parallel, src, workers)
		require.Equal(t, serial, parallel, "workers=%d", workers)
	}
}

func TestDot(t *testing.T) {
	a := halves(1, 2, 3, 4, 5)
	b := halves(2, 3, 4, 5, 6)
	// 2 + 6 + 12 + 20 + 30 = 70
	assert.Equal(t, float32(70), Dot(a, b))

	// The product exceeds the Half range; accumulation stays in float32.
	big := halves(60000, 60000)
	assert.Equal(t, float32(2*60000*60000), Dot(big, big))
}

func TestSum(t *testing.T) {
	assert.Equal(t, float32(0), Sum(nil))
	assert.Equal(t, float32(7.5), Sum(halves(1.5, 2, 4)))
}

func TestHasNaN(t *testing.T) {
	assert.False(t, HasNaN(halves(1, 2, 3)))
	assert.True(t, HasNaN([]half.Half{half.One, half.NaN()}))
	assert.False(t, HasNaN([]half.Half{half.PositiveInfinity}))
}
