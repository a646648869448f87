package spectral

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRealFFT_Impulse(t *testing.T) {
	src := make([]float64, 8)
	src[0] = 1
	dst := make([]complex128, Bins(8))

	NewRealFFT(8).Analyze(dst, src)
	for k, c := range dst {
		assert.InDelta(t, 1.0, real(c), 1e-12, "bin %d", k)
		assert.InDelta(t, 0.0, imag(c), 1e-12, "bin %d", k)
	}
}

func TestRealFFT_MatchesGoDSP(t *testing.T) {
	const n = 160
	src := make([]float64, n)
	for i := range src {
		src[i] = 1000*math.Sin(2*math.Pi*400*float64(i)/16000) + 37*math.Cos(float64(i))
	}

	gonumOut := make([]complex128, Bins(n))
	godspOut := make([]complex128, Bins(n))
	NewRealFFT(n).Analyze(gonumOut, src)
	NewFFT(n).Analyze(godspOut, src)

	for k := range gonumOut {
		assert.InDelta(t, 0, cmplx.Abs(gonumOut[k]-godspOut[k]), 1e-3, "bin %d", k)
	}
}

func TestAnalyze_PanicsOnWrongLengths(t *testing.T) {
	f := NewRealFFT(8)
	assert.Panics(t, func() { f.Analyze(make([]complex128, 5), make([]float64, 7)) })
	assert.Panics(t, func() { f.Analyze(make([]complex128, 4), make([]float64, 8)) })
	assert.Panics(t, func() { NewFFT(8).Analyze(make([]complex128, 4), make([]float64, 8)) })
}

func TestDCT_ConstantInput(t *testing.T) {
	const value = -46.05
	src := make([]float64, 40)
	for i := range src {
		src[i] = value
	}
	dst := make([]float64, 16)

	NewDCT(40, 16).Transform(dst, src)

	assert.InDelta(t, value*math.Sqrt(40), dst[0], 1e-9)
	for k := 1; k < len(dst); k++ {
		assert.InDelta(t, 0, dst[k], 1e-9, "coefficient %d", k)
	}
}

func TestDCT_RowsOrthonormal(t *testing.T) {
	d := NewDCT(40, 16)
	var gram mat.Dense
	gram.Mul(d.Matrix(), d.Matrix().T())

	r, c := gram.Dims()
	require.Equal(t, 16, r)
	require.Equal(t, 16, c)
	assert.True(t, mat.EqualApprox(&gram, eye(16), 1e-12))
}

func TestDCT_PanicsOnWrongLengths(t *testing.T) {
	d := NewDCT(4, 2)
	assert.Panics(t, func() { d.Transform(make([]float64, 2), make([]float64, 3)) })
	assert.Panics(t, func() { d.Transform(make([]float64, 3), make([]float64, 4)) })
}

func TestMelScale(t *testing.T) {
	for _, hz := range []float64{0, 100, 700, 1000, 4000, 8000} {
		assert.InDelta(t, hz, MelToHz(HzToMel(hz)), 1e-9*math.Max(1, hz))
	}
	assert.InDelta(t, 1000.0, HzToMel(1000), 0.1)
	assert.InDelta(t, 2595*math.Log10(1+8000.0/700), NyquistMel(16000), 1e-12)
	assert.InDelta(t, 4000.0, BinFrequency(16000, 40, 80), 1e-12)
}

func TestBinPower(t *testing.T) {
	assert.Equal(t, 25.0, BinPower(complex(3, 4)))
	assert.Equal(t, 4.0, BinPower(complex(0, -2)))
	assert.Zero(t, BinPower(0))
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
