package stats

import "math"

// MeanStdDev returns the population mean and standard deviation (ddof=0) of values.
// Both are zero for an empty slice.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}

// ZScores standardizes values against their own population mean and standard deviation.
//
// An empty, single-element or zero-variance slice yields all zeros rather than
// dividing by zero. The result always has the same length as values.
func ZScores(values []float64) []float64 {
	out := make([]float64, len(values))
	if constant(values) {
		return out
	}

	mean, stddev := MeanStdDev(values)
	if stddev == 0 || math.IsNaN(stddev) {
		return out
	}

	for i, v := range values {
		out[i] = (v - mean) / stddev
	}
	return out
}

// constant reports whether every value equals the first. A repeated value that
// is not exactly representable still sums to a tiny nonzero stddev.
func constant(values []float64) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Confidence maps a sample size to a [0,1] trust weight: log10(games+1)/4, clipped.
// Four orders of magnitude (roughly 10k games) saturate at 1.
func Confidence(games int) float64 {
	if games <= 0 {
		return 0
	}
	c := math.Log10(float64(games)+1) / 4
	return math.Max(0, math.Min(1, c))
}
