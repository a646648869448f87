// Package mfcc turns a stream of 16-bit PCM blocks into mel-frequency
// cepstral coefficients with first and second order deltas and running
// cepstral-mean normalization, one coefficient vector per block.
package mfcc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-mfcc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mfcc/logging"
)

// Transform drives one block at a time through windowing, spectral analysis,
// the mel filterbank, the cepstral transform and the dynamic features.
//
// All buffers are sized at construction and reused, so Transform does not
// allocate per block with the default collaborators. A Transform is not safe
// for concurrent use.
type Transform struct {
	config Config

	window     SampleWindow
	analyzer   SpectrumAnalyzer
	filterbank *MelFilterbank
	cepstral   CepstralTransform
	dynamics   *DynamicFeatures

	windowed []float64
	spectrum []complex128

	logger logging.Logger
}

// Option replaces a default collaborator of a Transform
type Option func(*Transform)

// WithSampleWindow replaces the Hamming sample window. Its Size must be
// 2 × BufferSize.
func WithSampleWindow(w SampleWindow) Option {
	return func(t *Transform) { t.window = w }
}

// WithSpectrumAnalyzer replaces the analyzer selected by Config.Analyzer
func WithSpectrumAnalyzer(a SpectrumAnalyzer) Option {
	return func(t *Transform) { t.analyzer = a }
}

// WithCepstralTransform replaces the DCT-II cepstral transform
func WithCepstralTransform(c CepstralTransform) Option {
	return func(t *Transform) { t.cepstral = c }
}

// WithLogger sets the logger used for lifecycle messages
func WithLogger(l logging.Logger) Option {
	return func(t *Transform) { t.logger = l }
}

// NewTransform creates a Transform with the default configuration
func NewTransform(sampleRate, bufferSize int, opts ...Option) (*Transform, error) {
	return NewTransformWithConfig(DefaultConfig(sampleRate, bufferSize), opts...)
}

// NewTransformWithConfig creates a Transform from cfg. Zero-valued optional
// fields take their defaults.
func NewTransformWithConfig(cfg Config, opts ...Option) (*Transform, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transform{
		config:     cfg,
		filterbank: NewMelFilterbank(cfg.SampleRate, cfg.NumFilters),
		dynamics:   NewDynamicFeatures(cfg.NumCoefficients, cfg.NormalizationLength, cfg.History),
		windowed:   make([]float64, cfg.WindowSize()),
		spectrum:   make([]complex128, cfg.SpectrumSize()),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.window == nil {
		t.window = NewHammingWindow(cfg.WindowSize(), !cfg.PeriodicWindow)
	} else if t.window.Size() != cfg.WindowSize() {
		return nil, errors.Wrapf(ErrInvalidConfig, "sample window holds %d samples, want %d",
			t.window.Size(), cfg.WindowSize())
	}
	if t.analyzer == nil {
		t.analyzer = newAnalyzer(cfg.Analyzer, cfg.WindowSize())
	}
	if t.cepstral == nil {
		t.cepstral = spectral.NewDCT(cfg.NumFilters, cfg.NumCoefficients)
	}
	if t.logger == nil {
		t.logger = logging.GetGlobalLogger()
	}
	t.logger = t.logger.WithFields(logging.Fields{
		"component": "mfcc",
	})

	t.logger.Debug("transform created", t.Parameters())
	return t, nil
}

// Transform consumes one block of BufferSize samples and writes the
// normalized [cepstra | deltas | delta-deltas] vector into output.
// It panics if input or output has the wrong length.
func (t *Transform) Transform(input []int16, output []float64) {
	if len(input) != t.config.BufferSize {
		panic(fmt.Sprintf("mfcc: input has %d samples, want %d", len(input), t.config.BufferSize))
	}
	if len(output) != t.config.OutputSize() {
		panic(fmt.Sprintf("mfcc: output has %d slots, want %d", len(output), t.config.OutputSize()))
	}

	t.window.Append(input)
	t.window.Apply(t.windowed)

	t.analyzer.Analyze(t.spectrum, t.windowed)

	energies := t.filterbank.Apply(t.spectrum)

	m := t.config.NumCoefficients
	clear(output[m:])
	t.cepstral.Transform(output[:m], energies)

	t.dynamics.Apply(output)
}

// Reset drops all buffered samples and history so the next block is
// processed as if the Transform had just been created
func (t *Transform) Reset() {
	t.window.Reset()
	t.dynamics.Reset()
	t.logger.Debug("transform reset")
}

// Parameters returns the configured and derived parameters as log fields
func (t *Transform) Parameters() logging.Fields {
	return logging.Fields{
		"sample_rate":          t.config.SampleRate,
		"buffer_size":          t.config.BufferSize,
		"window_size":          t.config.WindowSize(),
		"spectrum_bins":        t.config.SpectrumSize(),
		"num_filters":          t.config.NumFilters,
		"num_coefficients":     t.config.NumCoefficients,
		"normalization_length": t.config.NormalizationLength,
		"history":              t.config.History,
		"analyzer":             t.config.Analyzer,
		"output_size":          t.config.OutputSize(),
		"max_mel":              t.filterbank.MaxMel(),
		"filter_length":        t.filterbank.FilterLength(),
	}
}

// Config returns the effective configuration
func (t *Transform) Config() Config {
	return t.config
}

// SampleRate returns the sample rate the mel scale was built for
func (t *Transform) SampleRate() int {
	return t.config.SampleRate
}

// BufferSize returns the number of samples expected per call
func (t *Transform) BufferSize() int {
	return t.config.BufferSize
}

// OutputSize returns the length of each coefficient vector
func (t *Transform) OutputSize() int {
	return t.config.OutputSize()
}

// NumFilters returns the mel band count
func (t *Transform) NumFilters() int {
	return t.config.NumFilters
}

// NumCoefficients returns the cepstra per block
func (t *Transform) NumCoefficients() int {
	return t.config.NumCoefficients
}
