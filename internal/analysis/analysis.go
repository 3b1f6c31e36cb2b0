// Package analysis implements the numeric transforms behind the dashboard:
// rolling means, dispersion from precomputed sums, tone series assembly, and
// outlet correlation.
package analysis

import (
	"math"
	"time"
)

// Point is one value in a daily series.
type Point struct {
	Day   time.Time
	Value float64
}

// RollingMean applies a trailing rolling mean with the given window size.
// The window is partial at the start, so the output has the same length as
// the input and no leading gap.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// MeanStd returns the mean and sample standard deviation (n-1 denominator)
// from precomputed sums. With fewer than two observations the deviation is
// zero.
func MeanStd(sum, sumSq float64, n int) (float64, float64) {
	if n == 0 {
		return 0, 0
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	variance := (sumSq - float64(n)*mean*mean) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Pearson computes the Pearson correlation coefficient between two series of
// equal length. Series with no variance correlate at zero.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}

	numerator := float64(n)*sumXY - sumX*sumY
	denominator := math.Sqrt((float64(n)*sumX2 - sumX*sumX) * (float64(n)*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
