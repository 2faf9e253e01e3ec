package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform using mjibson/go-dsp.
// Takes []float64 input and returns []complex128 output.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude computes the magnitude spectrum from a complex spectrum,
// keeping only the first half (real input spectra are symmetric).
func (f *FFT) Magnitude(spectrum []complex128) []float64 {
	if len(spectrum) == 0 {
		return []float64{}
	}

	half := len(spectrum)/2 + 1
	magnitude := make([]float64, half)
	for i := 0; i < half; i++ {
		c := spectrum[i]
		magnitude[i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
	}

	return magnitude
}

// MagnitudeSpectrum computes the half-spectrum magnitudes of a real signal
// in one step.
func (f *FFT) MagnitudeSpectrum(x []float64) []float64 {
	return f.Magnitude(f.Compute(x))
}
