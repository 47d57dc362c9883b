// Package analyze reports how well a float32 dataset survives narrowing to
// binary16.
package analyze

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/23skdu/longbow-half/internal/half"
)

// Report summarises a dataset and the error introduced by narrowing it.
type Report struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	AbsMax float64 `json:"abs_max"`

	TotalElements   int     `json:"total_elements"`
	NaNCount        int     `json:"nan_count"`
	InfCount        int     `json:"inf_count"`
	OutOfRangeCount int     `json:"out_of_range_count"`
	OutOfRangeRatio float64 `json:"out_of_range_ratio"`

	// Precision counts values by the outcome of narrowing them.
	Precision map[string]int `json:"precision"`

	MaxAbsError       float64 `json:"max_abs_error"`
	MeanRelativeError float64 `json:"mean_relative_error"`
}

// problematicRatio is the share of out-of-range values above which a dataset
// is flagged.
const problematicRatio = 0.01

// Problematic reports whether narrowing the dataset loses values outright.
func (r Report) Problematic() bool {
	return r.OutOfRangeRatio > problematicRatio || r.NaNCount > 0 || r.InfCount > 0
}

// Float32s analyses data. Statistics cover only the finite values; NaN and
// infinite inputs are counted separately.
func Float32s(data []float32) Report {
	rep := Report{
		TotalElements: len(data),
		Precision:     make(map[string]int),
	}

	finite := make([]float64, 0, len(data))
	absErr := make([]float64, 0, len(data))
	var relSum float64
	var relN int

	for _, v := range data {
		h, p := half.FromFloat32Precision(v)
		rep.Precision[p.String()]++

		f := float64(v)
		if math.IsNaN(f) {
			rep.NaNCount++
			continue
		}
		if math.IsInf(f, 0) {
			rep.InfCount++
			continue
		}
		finite = append(finite, f)

		if p == half.PrecisionOverflow || p == half.PrecisionUnderflow || h.IsSubnormal() {
			rep.OutOfRangeCount++
		}
		if p == half.PrecisionOverflow {
			// Error against infinity is unbounded; keep it out of the averages.
			continue
		}

		e := math.Abs(float64(h.Float32()) - f)
		absErr = append(absErr, e)
		if f != 0 {
			relSum += e / math.Abs(f)
			relN++
		}
	}

	if len(finite) > 0 {
		rep.Min = floats.Min(finite)
		rep.Max = floats.Max(finite)
		rep.AbsMax = floats.Norm(finite, math.Inf(1))
		rep.Mean, rep.StdDev = stat.MeanStdDev(finite, nil)
		if len(finite) == 1 {
			rep.StdDev = 0
		}
	}
	if len(absErr) > 0 {
		rep.MaxAbsError = floats.Max(absErr)
	}
	if relN > 0 {
		rep.MeanRelativeError = relSum / float64(relN)
	}
	if rep.TotalElements > 0 {
		rep.OutOfRangeRatio = float64(rep.OutOfRangeCount) / float64(rep.TotalElements)
	}
	return rep
}
