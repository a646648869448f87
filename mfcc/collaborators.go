package mfcc

import (
	"github.com/RyanBlaney/sonido-mfcc/algorithms/common"
	"github.com/RyanBlaney/sonido-mfcc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mfcc/algorithms/windowing"
)

// SampleWindow buffers raw samples and hands out a weighted copy of them.
type SampleWindow interface {
	// Append pushes block at the back and drops as many samples from the front.
	Append(block []int16)
	// Apply writes the window, oldest sample first, multiplied by the
	// window function. len(dst) must equal Size().
	Apply(dst []float64)
	Size() int
	Reset()
}

// SpectrumAnalyzer is a fixed-size real-to-complex forward transform that
// writes the len(src)/2+1 non-negative bins into dst.
type SpectrumAnalyzer interface {
	Analyze(dst []complex128, src []float64)
}

// CepstralTransform maps log mel energies (src) to cepstral coefficients (dst).
type CepstralTransform interface {
	Transform(dst, src []float64)
}

// HammingWindow is the default SampleWindow: a sliding int16 buffer of
// 2 × block size samples weighted by a Hamming window.
type HammingWindow struct {
	buffer  *common.SampleBuffer
	hamming *windowing.Hamming
}

// NewHammingWindow creates a zero-filled window of size samples
func NewHammingWindow(size int, symmetric bool) *HammingWindow {
	return &HammingWindow{
		buffer:  common.NewSampleBuffer(size),
		hamming: windowing.NewHamming(size, symmetric),
	}
}

func (w *HammingWindow) Append(block []int16) {
	w.buffer.Write(block)
}

func (w *HammingWindow) Apply(dst []float64) {
	w.buffer.PeekFloat(dst)
	w.hamming.Weight(dst)
}

func (w *HammingWindow) Size() int {
	return w.buffer.Size()
}

func (w *HammingWindow) Reset() {
	w.buffer.Clear()
}

// newAnalyzer builds the built-in analyzer named by kind
func newAnalyzer(kind AnalyzerKind, size int) SpectrumAnalyzer {
	if kind == AnalyzerGoDSP {
		return spectral.NewFFT(size)
	}
	return spectral.NewRealFFT(size)
}
