// Package formulas holds the numeric helpers used by the valuation engine.
package formulas

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// MeanStdDev returns the mean and sample standard deviation (n-1 denominator)
func MeanStdDev(data []float64) (float64, float64) {
	switch len(data) {
	case 0:
		return 0, 0
	case 1:
		return data[0], 0
	}
	return stat.MeanStdDev(data, nil)
}

// Percentile returns the p-th quantile (0 <= p <= 1) using linear
// interpolation between closest ranks: h = (n-1)*p, result =
// x[floor(h)] + (h-floor(h)) * (x[floor(h)+1] - x[floor(h)]).
//
// gonum's stat.LinInterp uses the p*n cumulative definition, which gives a
// different answer for small samples, so the ranks are computed here.
// The input slice is not modified.
func Percentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	if p <= 0 || p >= 1 || n == 1 {
		sorted := sortedCopy(data)
		if p <= 0 {
			return sorted[0]
		}
		return sorted[n-1]
	}

	sorted := sortedCopy(data)
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func sortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Round rounds x to the given number of decimal places, half away from zero.
// NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places, the storage precision for valuations
func Round2(x float64) float64 {
	return Round(x, 2)
}
