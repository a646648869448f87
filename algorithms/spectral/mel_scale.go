package spectral

import (
	"math"
)

// HzToMel converts frequency in Hz to the mel scale (2595·log10(1+f/700))
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// NyquistMel returns the mel value of half the sample rate
func NyquistMel(sampleRate int) float64 {
	return HzToMel(float64(sampleRate) / 2.0)
}

// BinFrequency returns the frequency in Hz that bin k of an n-bin
// one-sided spectrum is mapped to, spreading the bins evenly over [0, Nyquist)
func BinFrequency(sampleRate, k, n int) float64 {
	return float64(sampleRate) / 2.0 * float64(k) / float64(n)
}
