package common

// SampleBuffer is a fixed-length sliding window of 16-bit PCM samples.
// It starts zero-filled and never changes length: every Write pushes the
// new samples at the back and drops the same number from the front.
type SampleBuffer struct {
	buffer   []int16
	size     int
	writePos int // index of the oldest sample, also the next write slot
}

// NewSampleBuffer creates a zero-filled buffer holding size samples
func NewSampleBuffer(size int) *SampleBuffer {
	return &SampleBuffer{
		buffer: make([]int16, size),
		size:   size,
	}
}

// Write appends data, overwriting the oldest samples
func (sb *SampleBuffer) Write(data []int16) int {
	// only the newest size samples can survive
	if len(data) > sb.size {
		data = data[len(data)-sb.size:]
	}

	n := copy(sb.buffer[sb.writePos:], data)
	if n < len(data) {
		copy(sb.buffer, data[n:])
	}
	sb.writePos = (sb.writePos + len(data)) % sb.size
	return len(data)
}

// PeekFloat copies the window into dst, oldest sample first, converting to
// float64. dst must hold Size() values.
func (sb *SampleBuffer) PeekFloat(dst []float64) int {
	n := min(len(dst), sb.size)
	for i := 0; i < n; i++ {
		dst[i] = float64(sb.buffer[(sb.writePos+i)%sb.size])
	}
	return n
}

// Peek copies the window into dst, oldest sample first
func (sb *SampleBuffer) Peek(dst []int16) int {
	n := copy(dst, sb.buffer[sb.writePos:])
	if n < len(dst) {
		n += copy(dst[n:], sb.buffer[:sb.writePos])
	}
	return n
}

// Size returns the window length
func (sb *SampleBuffer) Size() int {
	return sb.size
}

// Clear zero-fills the window
func (sb *SampleBuffer) Clear() {
	clear(sb.buffer)
	sb.writePos = 0
}
