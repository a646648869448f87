package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DCT computes the first numCoefficients terms of an orthonormal DCT-II of a
// numInputs long sequence. It is the usual cepstral step of MFCC: log mel
// energies in, cepstral coefficients out.
type DCT struct {
	numInputs       int
	numCoefficients int
	matrix          *mat.Dense
}

// NewDCT creates the transform matrix. numCoefficients must not exceed numInputs.
func NewDCT(numInputs, numCoefficients int) *DCT {
	d := &DCT{
		numInputs:       numInputs,
		numCoefficients: numCoefficients,
		matrix:          mat.NewDense(numCoefficients, numInputs, nil),
	}
	d.createMatrix()
	return d
}

func (d *DCT) createMatrix() {
	n := float64(d.numInputs)
	for k := 0; k < d.numCoefficients; k++ {
		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}

		row := d.matrix.RawRowView(k)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/n)
		}
	}
}

// Transform writes the coefficients of src into dst
func (d *DCT) Transform(dst, src []float64) {
	if len(src) != d.numInputs {
		panic(fmt.Sprintf("spectral: dct input length %d, want %d", len(src), d.numInputs))
	}
	if len(dst) != d.numCoefficients {
		panic(fmt.Sprintf("spectral: dct output length %d, want %d", len(dst), d.numCoefficients))
	}

	for k := range dst {
		dst[k] = floats.Dot(d.matrix.RawRowView(k), src)
	}
}

// Matrix returns the transform matrix (numCoefficients × numInputs)
func (d *DCT) Matrix() mat.Matrix {
	return d.matrix
}

// NumInputs returns the input length
func (d *DCT) NumInputs() int {
	return d.numInputs
}

// NumCoefficients returns the output length
func (d *DCT) NumCoefficients() int {
	return d.numCoefficients
}
