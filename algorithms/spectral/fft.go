package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT provides a real-input forward transform on top of mjibson/go-dsp.
// go-dsp returns the full two-sided spectrum in a fresh slice on every call,
// so FFT allocates; prefer RealFFT on hot paths.
type FFT struct {
	size int
}

// NewFFT creates a forward transform for sequences of length size
func NewFFT(size int) *FFT {
	return &FFT{size: size}
}

// Analyze writes the size/2+1 non-negative frequency bins of src into dst
func (f *FFT) Analyze(dst []complex128, src []float64) {
	checkLengths(f.size, dst, src)
	full := fft.FFTReal(src)
	copy(dst, full[:len(dst)])
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// RealFFT is an allocation-free real-input forward transform backed by
// gonum's dsp/fourier package. Its work area is reused across calls, so a
// RealFFT must not be shared between goroutines.
type RealFFT struct {
	size int
	fft  *fourier.FFT
}

// NewRealFFT creates a forward transform for sequences of length size
func NewRealFFT(size int) *RealFFT {
	return &RealFFT{
		size: size,
		fft:  fourier.NewFFT(size),
	}
}

// Analyze writes the size/2+1 non-negative frequency bins of src into dst
func (r *RealFFT) Analyze(dst []complex128, src []float64) {
	checkLengths(r.size, dst, src)
	r.fft.Coefficients(dst, src)
}

// Size returns the transform length
func (r *RealFFT) Size() int {
	return r.size
}

// Bins returns the number of non-negative frequency bins for a transform of
// length size
func Bins(size int) int {
	return size/2 + 1
}

func checkLengths(size int, dst []complex128, src []float64) {
	if len(src) != size {
		panic(fmt.Sprintf("spectral: input length %d, want %d", len(src), size))
	}
	if len(dst) != Bins(size) {
		panic(fmt.Sprintf("spectral: output length %d, want %d", len(dst), Bins(size)))
	}
}
