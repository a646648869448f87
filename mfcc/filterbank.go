package mfcc

import (
	"math"

	"github.com/RyanBlaney/sonido-mfcc/algorithms/spectral"
)

// MelFilterbank folds a one-sided spectrum into numFilters overlapping
// triangular bands spaced evenly on the mel scale, then log-compresses them.
//
// Each bin feeds the band its mel value falls in (rising edge) and the band
// before it (falling edge). The edge weights are straight linear ramps and
// are not clamped to [0, 1].
type MelFilterbank struct {
	sampleRate   int
	numFilters   int
	maxMel       float64 // mel value of the Nyquist frequency
	filterLength float64 // mel width of one triangle (two half-steps)

	energies []float64
}

// NewMelFilterbank creates a filterbank for the given sample rate
func NewMelFilterbank(sampleRate, numFilters int) *MelFilterbank {
	maxMel := spectral.NyquistMel(sampleRate)
	return &MelFilterbank{
		sampleRate:   sampleRate,
		numFilters:   numFilters,
		maxMel:       maxMel,
		filterLength: maxMel / float64(numFilters) * 2.0,
		energies:     make([]float64, numFilters),
	}
}

// BinWeights returns where bin k of an n-bin spectrum lands: its band index,
// the weight it adds to band idx-1 (zero when idx is 0) and the weight it
// adds to band idx.
func (fb *MelFilterbank) BinWeights(k, n int) (idx int, prev, own float64) {
	mel := spectral.HzToMel(spectral.BinFrequency(fb.sampleRate, k, n))

	idx = int(math.Floor(mel / fb.maxMel * float64(fb.numFilters)))
	if idx == fb.numFilters {
		idx--
	}

	if idx > 0 {
		prev = 1.0 - (mel-float64(idx-1)*fb.filterLength/2.0)/fb.filterLength
	}
	own = (mel - float64(idx)*fb.filterLength/2.0) / fb.filterLength

	return idx, prev, own
}

// Accumulate sums the weighted bin powers of spectrum into the bands without
// log compression. DC (bin 0) is skipped. The returned slice is reused by
// the next call.
func (fb *MelFilterbank) Accumulate(spectrum []complex128) []float64 {
	clear(fb.energies)

	n := len(spectrum)
	for k := 1; k < n; k++ {
		idx, prev, own := fb.BinWeights(k, n)
		power := spectral.BinPower(spectrum[k])

		if idx > 0 {
			fb.energies[idx-1] += prev * power
		}
		fb.energies[idx] += own * power
	}

	return fb.energies
}

// Apply returns the log mel energies of spectrum. The returned slice is
// reused by the next call.
func (fb *MelFilterbank) Apply(spectrum []complex128) []float64 {
	energies := fb.Accumulate(spectrum)
	for i, e := range energies {
		energies[i] = LogEnergy(e)
	}
	return energies
}

// LogEnergy is the natural log of e, or LogEnergyFloor when e < EnergyFloor
func LogEnergy(e float64) float64 {
	if e < EnergyFloor {
		return LogEnergyFloor
	}
	return math.Log(e)
}

// MaxMel returns the mel value of the Nyquist frequency
func (fb *MelFilterbank) MaxMel() float64 {
	return fb.maxMel
}

// FilterLength returns the mel width of one triangle
func (fb *MelFilterbank) FilterLength() float64 {
	return fb.filterLength
}

// NumFilters returns the band count
func (fb *MelFilterbank) NumFilters() int {
	return fb.numFilters
}
