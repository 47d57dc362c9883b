package analyze

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32s_Empty(t *testing.T) {
	rep := Float32s(nil)
	assert.Equal(t, 0, rep.TotalElements)
	assert.Equal(t, 0.0, rep.Mean)
	assert.False(t, rep.Problematic())
}

func TestFloat32s_ExactValues(t *testing.T) {
	rep := Float32s([]float32{1, -2, 3, 4})

	assert.Equal(t, 4, rep.TotalElements)
	assert.Equal(t, -2.0, rep.Min)
	assert.Equal(t, 4.0, rep.Max)
	assert.Equal(t, 4.0, rep.AbsMax)
	assert.InDelta(t, 1.5, rep.Mean, 1e-12)
	assert.Equal(t, 4, rep.Precision["exact"])
	assert.Equal(t, 0.0, rep.MaxAbsError)
	assert.Equal(t, 0.0, rep.MeanRelativeError)
	assert.False(t, rep.Problematic())
}

func TestFloat32s_LossyValues(t *testing.T) {
	data := []float32{
		0.1,                         // inexact
		1e6,                         // overflow
		1e-10,                       // underflow
		float32(math.Ldexp(1, -20)), // subnormal
		float32(math.NaN()),         // NaN
		float32(math.Inf(-1)),       // Inf
	}
	rep := Float32s(data)

	assert.Equal(t, 6, rep.TotalElements)
	assert.Equal(t, 1, rep.NaNCount)
	assert.Equal(t, 1, rep.InfCount)
	assert.Equal(t, 3, rep.OutOfRangeCount)
	assert.InDelta(t, 0.5, rep.OutOfRangeRatio, 1e-12)
	assert.Equal(t, 1, rep.Precision["inexact"])
	assert.Equal(t, 1, rep.Precision["overflow"])
	assert.Equal(t, 1, rep.Precision["underflow"])
	assert.Equal(t, 1, rep.Precision["subnormal"])
	assert.Equal(t, 2, rep.Precision["exact"])

	assert.Equal(t, 1e6, rep.AbsMax)
	assert.Greater(t, rep.MaxAbsError, 0.0)
	// Underflow to zero is a relative error of exactly 1.
	assert.Greater(t, rep.MeanRelativeError, 0.25)
	assert.True(t, rep.Problematic())
}

func TestFloat32s_SingleValueStdDev(t *testing.T) {
	rep := Float32s([]float32{2})
	assert.Equal(t, 2.0, rep.Mean)
	assert.Equal(t, 0.0, rep.StdDev)
}
