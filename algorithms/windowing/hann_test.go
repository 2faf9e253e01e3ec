package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHannSymmetricShape(t *testing.T) {
	h := NewHann(9, true)
	coeffs := h.GetCoefficients()

	assert := assert.New(t)
	assert.Len(coeffs, 9)
	assert.InDelta(0.0, coeffs[0], 1e-12)
	assert.InDelta(0.0, coeffs[8], 1e-12)
	assert.InDelta(1.0, coeffs[4], 1e-12)
	assert.InDelta(coeffs[1], coeffs[7], 1e-12)
}

func TestHannApply(t *testing.T) {
	h := NewHann(8, true)

	signal := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	windowed := h.Apply(signal)

	assert := assert.New(t)
	assert.Equal(h.GetCoefficients(), windowed)
	assert.Equal([]float64{1, 1, 1, 1, 1, 1, 1, 1}, signal, "Apply must not mutate its input")

	assert.Nil(h.Apply([]float64{1, 2, 3}))
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(8, true)

	signal := []float64{2, 2, 2, 2, 2, 2, 2, 2}
	assert.NoError(t, h.ApplyInPlace(signal))
	assert.InDelta(t, 2.0*h.GetCoefficients()[3], signal[3], 1e-12)

	assert.Error(t, h.ApplyInPlace([]float64{1, 2}))
}
