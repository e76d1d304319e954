package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// WeightedMean calculates the weighted arithmetic mean. Weights must be
// nonnegative and the same length as data.
func WeightedMean(data, weights []float64) float64 {
	if len(data) == 0 || len(data) != len(weights) {
		return 0.0
	}
	return stat.Mean(data, weights)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// PopulationStdDev calculates the population standard deviation
// (normalized by N rather than N-1)
func PopulationStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(stat.PopVariance(data, nil))
}

// Median returns the median value, averaging the two middle elements
// for even-length input
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// NormalizeSum scales data so its elements sum to 1. Data with a
// non-positive sum is returned unchanged.
func NormalizeSum(data []float64) []float64 {
	sum := floats.Sum(data)
	if sum <= 0 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	normalized := make([]float64, len(data))
	for i, val := range data {
		normalized[i] = val / sum
	}
	return normalized
}

// MinMaxNormalize normalizes data to [0, 1] range
func MinMaxNormalize(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	min := floats.Min(data)
	max := floats.Max(data)

	if math.Abs(max-min) < 1e-10 {
		// Constant data normalizes to all zeros
		return make([]float64, len(data))
	}

	normalized := make([]float64, len(data))
	for i, val := range data {
		normalized[i] = (val - min) / (max - min)
	}

	return normalized
}

// MedianFilter applies median filtering with given window size
func MedianFilter(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return data
	}

	if windowSize > len(data) {
		windowSize = len(data)
	}

	result := make([]float64, len(data))
	halfWindow := windowSize / 2

	for i := range data {
		start := i - halfWindow
		end := i + halfWindow + 1

		if start < 0 {
			start = 0
		}
		if end > len(data) {
			end = len(data)
		}

		window := make([]float64, end-start)
		copy(window, data[start:end])
		sort.Float64s(window)

		mid := len(window) / 2
		if len(window)%2 == 0 {
			result[i] = (window[mid-1] + window[mid]) / 2.0
		} else {
			result[i] = window[mid]
		}
	}

	return result
}

// Correlation calculates the Pearson correlation coefficient between two
// series. The result is NaN when either series has zero variance; callers
// deciding between hypotheses should skip degenerate values.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}

	return stat.Correlation(x, y, nil)
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a value to the given number of decimal places
func RoundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
