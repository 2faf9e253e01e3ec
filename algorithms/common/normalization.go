package common

import (
	"math"
)

// NormalizationType defines normalization method
type NormalizationType int

const (
	Peak NormalizationType = iota
)

// Normalizer provides signal normalization
type Normalizer struct {
	method NormalizationType
}

// NewNormalizer creates a new normalizer
func NewNormalizer(method NormalizationType) *Normalizer {
	return &Normalizer{
		method: method,
	}
}

// Normalize normalizes signal using the specified method
func (n *Normalizer) Normalize(signal []float64) []float64 {
	return n.peakNormalize(signal)
}

// peakNormalize scales by the maximum absolute value so the strongest
// component lands at 1.0
func (n *Normalizer) peakNormalize(signal []float64) []float64 {
	if len(signal) == 0 {
		return signal
	}

	peak := 0.0
	for _, val := range signal {
		if abs := math.Abs(val); abs > peak {
			peak = abs
		}
	}

	if peak < 1e-10 {
		// Degenerate signal stays as-is
		return signal
	}

	normalized := make([]float64, len(signal))
	for i, val := range signal {
		normalized[i] = val / peak
	}

	return normalized
}
