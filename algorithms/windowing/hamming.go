package windowing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hamming holds the coefficients 0.54 - 0.46·cos(2πi/P) for one window
// length. P is size-1 for a symmetric window and size for a periodic one.
type Hamming struct {
	coefficients []float64
	symmetric    bool
}

// NewHamming computes the window once; size 1 yields the single weight 1
func NewHamming(size int, symmetric bool) *Hamming {
	h := &Hamming{
		coefficients: make([]float64, size),
		symmetric:    symmetric,
	}

	if size == 1 {
		h.coefficients[0] = 1
		return h
	}

	period := float64(size)
	if symmetric {
		period = float64(size - 1)
	}
	for i := range h.coefficients {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/period)
	}

	return h
}

// Weight multiplies signal by the window in place.
// It panics if len(signal) differs from Len.
func (h *Hamming) Weight(signal []float64) {
	floats.Mul(signal, h.coefficients)
}

// Coefficients returns a copy of the weights
func (h *Hamming) Coefficients() []float64 {
	return append([]float64(nil), h.coefficients...)
}

func (h *Hamming) Len() int {
	return len(h.coefficients)
}

// Symmetric reports whether the window was built with the size-1 period
func (h *Hamming) Symmetric() bool {
	return h.symmetric
}
