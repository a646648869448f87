package mfcc

import (
	"bytes"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mfcc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mfcc/logging"
)

func newTestTransform(t *testing.T, cfg Config, opts ...Option) *Transform {
	t.Helper()
	opts = append([]Option{WithLogger(&logging.NoOpLogger{})}, opts...)
	tr, err := NewTransformWithConfig(cfg, opts...)
	require.NoError(t, err)
	return tr
}

// sineBlock returns one block of a sinusoid whose period divides size, so
// feeding the same block repeatedly is a continuous periodic signal
func sineBlock(size int, freq, sampleRate, amplitude float64) []int16 {
	block := make([]int16, size)
	for i := range block {
		block[i] = int16(math.Round(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)))
	}
	return block
}

func TestTransform_SilenceGivesFlooredCepstrum(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))
	out := make([]float64, tr.OutputSize())

	tr.Transform(make([]int16, 80), out)

	floor := make([]float64, 40)
	for i := range floor {
		floor[i] = LogEnergyFloor
	}
	want := make([]float64, 16)
	spectral.NewDCT(40, 16).Transform(want, floor)

	assert.InDeltaSlice(t, want, out[:16], 1e-9)
	assert.InDelta(t, LogEnergyFloor*math.Sqrt(40), out[0], 1e-9)
	assert.Equal(t, make([]float64, 32), out[16:])
}

func TestTransform_FirstCallClearsDeltaBlocks(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))
	out := make([]float64, tr.OutputSize())
	for i := range out {
		out[i] = 123
	}

	tr.Transform(sineBlock(80, 400, 16000, 8000), out)
	assert.Equal(t, make([]float64, 32), out[16:])
}

func TestTransform_DeltaIsDifferenceOfConsecutiveCepstra(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))
	out := make([]float64, tr.OutputSize())

	tr.Transform(sineBlock(80, 400, 16000, 8000), out)
	first, _ := tr.dynamics.history.newest()
	first = append([]float64(nil), first...)

	tr.Transform(sineBlock(80, 1000, 16000, 3000), out)
	second, _ := tr.dynamics.history.newest()

	for i := 0; i < 16; i++ {
		assert.InDelta(t, second[i]-first[i], second[16+i], 1e-12, "coefficient %d", i)
		assert.InDelta(t, second[16+i]-first[16+i], second[32+i], 1e-12, "coefficient %d", i)
	}
}

func TestTransform_LiteralHistoryLength(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))
	out := make([]float64, tr.OutputSize())
	block := sineBlock(80, 400, 16000, 8000)

	for i := 0; i < 6; i++ {
		tr.Transform(block, out)
		assert.Equal(t, 1, tr.dynamics.HistoryLen(), "after call %d", i+1)
	}
}

func TestTransform_WindowedHistoryLength(t *testing.T) {
	cfg := DefaultConfig(16000, 80)
	cfg.History = HistoryWindowed
	tr := newTestTransform(t, cfg)
	out := make([]float64, tr.OutputSize())
	block := sineBlock(80, 400, 16000, 8000)

	for i := 0; i < 8; i++ {
		tr.Transform(block, out)
		assert.Equal(t, min(i+1, 5), tr.dynamics.HistoryLen(), "after call %d", i+1)
	}
}

func TestTransform_SteadyStateOnPeriodicInput(t *testing.T) {
	tests := []struct {
		name        string
		history     HistoryMode
		steadyFrom  int // 1-based frame from which outputs must repeat
		totalFrames int
	}{
		{"literal", HistoryLiteral, 5, 10},
		{"windowed", HistoryWindowed, 6, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(16000, 80)
			cfg.History = tt.history
			tr := newTestTransform(t, cfg)

			// 400 Hz at 16 kHz has a 40-sample period, two per block
			block := sineBlock(80, 400, 16000, 8000)

			var frames [][]float64
			for i := 0; i < tt.totalFrames; i++ {
				out := make([]float64, tr.OutputSize())
				tr.Transform(block, out)
				frames = append(frames, out)
			}

			ref := frames[tt.steadyFrom-1]
			for f := tt.steadyFrom; f < tt.totalFrames; f++ {
				assert.InDeltaSlice(t, ref[:16], frames[f][:16], 1e-9, "frame %d", f+1)
			}
		})
	}
}

func TestTransform_Deterministic(t *testing.T) {
	cfg := DefaultConfig(16000, 80)
	a := newTestTransform(t, cfg)
	b := newTestTransform(t, cfg)

	outA := make([]float64, a.OutputSize())
	outB := make([]float64, b.OutputSize())
	for i := 0; i < 12; i++ {
		block := sineBlock(80, float64(200*(i%4+1)), 16000, float64(1000*(i+1)))
		a.Transform(block, outA)
		b.Transform(block, outB)
		assert.Equal(t, outA, outB, "frame %d", i+1)
	}
}

func TestTransform_AnalyzersAgree(t *testing.T) {
	cfg := DefaultConfig(16000, 80)
	gonumTr := newTestTransform(t, cfg)
	cfg.Analyzer = AnalyzerGoDSP
	godspTr := newTestTransform(t, cfg)

	outA := make([]float64, gonumTr.OutputSize())
	outB := make([]float64, godspTr.OutputSize())
	for i := 0; i < 6; i++ {
		block := sineBlock(80, float64(200*(i+1)), 16000, 5000)
		gonumTr.Transform(block, outA)
		godspTr.Transform(block, outB)
		assert.InDeltaSlice(t, outA, outB, 1e-4, "frame %d", i+1)
	}
}

func TestTransform_ResetMatchesFreshInstance(t *testing.T) {
	cfg := DefaultConfig(16000, 80)
	used := newTestTransform(t, cfg)
	out := make([]float64, used.OutputSize())
	for i := 0; i < 4; i++ {
		used.Transform(sineBlock(80, float64(400*(i+1)), 16000, 7000), out)
	}
	used.Reset()

	fresh := newTestTransform(t, cfg)
	want := make([]float64, fresh.OutputSize())
	for i := 0; i < 3; i++ {
		block := sineBlock(80, 800, 16000, 4000)
		used.Transform(block, out)
		fresh.Transform(block, want)
		assert.Equal(t, want, out)
	}
}

func TestTransform_PanicsOnWrongBufferSizes(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))

	assert.Panics(t, func() { tr.Transform(make([]int16, 79), make([]float64, 48)) })
	assert.Panics(t, func() { tr.Transform(make([]int16, 80), make([]float64, 47)) })
	assert.NotPanics(t, func() { tr.Transform(make([]int16, 80), make([]float64, 48)) })
}

func TestTransform_DoesNotAllocate(t *testing.T) {
	tr := newTestTransform(t, DefaultConfig(16000, 80))
	out := make([]float64, tr.OutputSize())
	block := sineBlock(80, 400, 16000, 8000)

	allocs := testing.AllocsPerRun(50, func() {
		tr.Transform(block, out)
	})
	assert.Zero(t, allocs)
}

type recordingCepstrum struct {
	calls int
	last  []float64
}

func (r *recordingCepstrum) Transform(dst, src []float64) {
	r.calls++
	r.last = append(r.last[:0], src...)
	for i := range dst {
		dst[i] = float64(i)
	}
}

func TestTransform_CustomCollaborators(t *testing.T) {
	rec := &recordingCepstrum{}
	tr := newTestTransform(t, DefaultConfig(16000, 80),
		WithCepstralTransform(rec),
		WithSpectrumAnalyzer(spectral.NewFFT(160)),
	)
	out := make([]float64, tr.OutputSize())

	tr.Transform(make([]int16, 80), out)
	assert.Equal(t, 1, rec.calls)
	require.Len(t, rec.last, 40)
	assert.Equal(t, LogEnergyFloor, rec.last[0])
	assert.Equal(t, 15.0, out[15])
}

func TestTransform_RejectsMismatchedWindow(t *testing.T) {
	_, err := NewTransformWithConfig(DefaultConfig(16000, 80),
		WithLogger(&logging.NoOpLogger{}),
		WithSampleWindow(NewHammingWindow(100, true)),
	)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
}

func TestTransform_LogsParametersAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf)
	logger.SetLevel(logging.DebugLevel)

	tr, err := NewTransform(16000, 80, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[DEBUG] transform created")
	assert.Contains(t, buf.String(), "component=mfcc")
	assert.Contains(t, buf.String(), "window_size=160")

	tr.Reset()
	assert.Contains(t, buf.String(), "transform reset")
}

func TestTransform_Accessors(t *testing.T) {
	tr, err := NewTransformWithConfig(Config{SampleRate: 8000, BufferSize: 128}, WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	assert.Equal(t, 8000, tr.SampleRate())
	assert.Equal(t, 128, tr.BufferSize())
	assert.Equal(t, 48, tr.OutputSize())
	assert.Equal(t, 40, tr.NumFilters())
	assert.Equal(t, 16, tr.NumCoefficients())
	assert.Equal(t, HistoryLiteral, tr.Config().History)
	assert.Equal(t, AnalyzerGonum, tr.Config().Analyzer)
}

func BenchmarkTransform(b *testing.B) {
	tr, err := NewTransform(16000, 160, WithLogger(&logging.NoOpLogger{}))
	if err != nil {
		b.Fatal(err)
	}
	out := make([]float64, tr.OutputSize())
	block := sineBlock(160, 400, 16000, 8000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Transform(block, out)
	}
}
