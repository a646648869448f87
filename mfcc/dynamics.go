package mfcc

import (
	"gonum.org/v1/gonum/floats"
)

// frameHistory is a fixed-capacity FIFO of coefficient vectors. All slots
// are allocated up front; push copies into the slot after the newest frame.
type frameHistory struct {
	slots [][]float64
	start int // oldest frame
	count int
}

func newFrameHistory(capacity, size int) *frameHistory {
	backing := make([]float64, capacity*size)
	slots := make([][]float64, capacity)
	for i := range slots {
		slots[i] = backing[i*size : (i+1)*size : (i+1)*size]
	}
	return &frameHistory{slots: slots}
}

func (h *frameHistory) Len() int { return h.count }

func (h *frameHistory) Cap() int { return len(h.slots) }

func (h *frameHistory) Full() bool { return h.count == len(h.slots) }

// at returns the i-th frame counting from the oldest
func (h *frameHistory) at(i int) []float64 {
	return h.slots[(h.start+i)%len(h.slots)]
}

// newest returns the most recently pushed frame
func (h *frameHistory) newest() ([]float64, bool) {
	if h.count == 0 {
		return nil, false
	}
	return h.at(h.count - 1), true
}

// popOldest removes the oldest frame. The returned slice stays valid until
// the slot is reused by a later push.
func (h *frameHistory) popOldest() ([]float64, bool) {
	if h.count == 0 {
		return nil, false
	}
	frame := h.slots[h.start]
	h.start = (h.start + 1) % len(h.slots)
	h.count--
	return frame, true
}

func (h *frameHistory) push(frame []float64) {
	if h.Full() {
		h.popOldest()
	}
	copy(h.at(h.count), frame)
	h.count++
}

func (h *frameHistory) reset() {
	h.start = 0
	h.count = 0
	for _, slot := range h.slots {
		clear(slot)
	}
}

// DynamicFeatures appends delta and delta-delta blocks to a cepstral vector
// and subtracts a running cepstral mean kept over a short frame history.
//
// A vector has three blocks of numCoefficients values: cepstra, deltas and
// delta-deltas. Stored history frames are pre-normalization.
type DynamicFeatures struct {
	numCoefficients     int
	normalizationLength int
	mode                HistoryMode

	history    *frameHistory
	mean       []float64
	peakEnergy float64
}

// NewDynamicFeatures creates an empty history and a zero mean
func NewDynamicFeatures(numCoefficients, normalizationLength int, mode HistoryMode) *DynamicFeatures {
	size := 3 * numCoefficients
	return &DynamicFeatures{
		numCoefficients:     numCoefficients,
		normalizationLength: normalizationLength,
		mode:                mode,
		history:             newFrameHistory(normalizationLength, size),
		mean:                make([]float64, size),
	}
}

// Apply completes frame in place. On entry frame[:numCoefficients] holds the
// cepstra of the current block and the delta blocks are zero. On return the
// delta blocks are filled and the whole vector is mean-normalized.
func (d *DynamicFeatures) Apply(frame []float64) {
	m := d.numCoefficients

	if prev, ok := d.history.newest(); ok {
		for i := 0; i < m; i++ {
			frame[m+i] = frame[i] - prev[i]
			frame[2*m+i] = frame[m+i] - prev[m+i]
		}
	}

	d.updateMean(frame)
	d.history.push(frame)

	d.peakEnergy = 0.0
	for i, n := 0, d.history.Len(); i < n; i++ {
		if e := d.history.at(i)[0]; e > d.peakEnergy {
			d.peakEnergy = e
		}
	}

	floats.Sub(frame, d.mean)
}

// updateMean evicts according to the history mode and folds the difference
// between frame and the evicted vector into the running mean
func (d *DynamicFeatures) updateMean(frame []float64) {
	n := float64(d.normalizationLength)

	evict := d.history.Len() > 0
	if d.mode == HistoryWindowed {
		evict = d.history.Full()
	}

	if evict {
		old, _ := d.history.popOldest()
		for i := range d.mean {
			d.mean[i] += (frame[i] - old[i]) / n
		}
		return
	}

	if d.mode == HistoryWindowed {
		for i := range d.mean {
			d.mean[i] += frame[i] / n
		}
	}
}

// Mean returns a copy of the running mean
func (d *DynamicFeatures) Mean() []float64 {
	out := make([]float64, len(d.mean))
	copy(out, d.mean)
	return out
}

// HistoryLen returns the number of stored frames
func (d *DynamicFeatures) HistoryLen() int {
	return d.history.Len()
}

// Reset empties the history and zeroes the mean
func (d *DynamicFeatures) Reset() {
	d.history.reset()
	clear(d.mean)
	d.peakEnergy = 0
}
