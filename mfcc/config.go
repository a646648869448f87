package mfcc

import (
	"github.com/pkg/errors"
)

// HistoryMode selects how the cepstral-mean history evicts frames.
type HistoryMode string

const (
	// HistoryLiteral evicts the oldest frame on every call that finds the
	// history non-empty, before the new frame is stored. The history never
	// holds more than one frame and the running mean telescopes to
	// (newest - first) / NormalizationLength.
	HistoryLiteral HistoryMode = "literal"

	// HistoryWindowed keeps up to NormalizationLength frames and evicts only
	// when full. Empty slots count as zero vectors, so the running mean is
	// the sum of the stored frames divided by NormalizationLength.
	HistoryWindowed HistoryMode = "windowed"
)

// AnalyzerKind names a built-in SpectrumAnalyzer implementation.
type AnalyzerKind string

const (
	AnalyzerGonum AnalyzerKind = "gonum" // gonum dsp/fourier, allocation free
	AnalyzerGoDSP AnalyzerKind = "godsp" // mjibson/go-dsp
)

const (
	DefaultNumFilters          = 40
	DefaultNumCoefficients     = 16
	DefaultNormalizationLength = 5

	// Energies below EnergyFloor are replaced by LogEnergyFloor (≈ ln(1e-20))
	// instead of taking the logarithm.
	EnergyFloor    = 1e-20
	LogEnergyFloor = -46.05
)

// ErrInvalidConfig is the cause of every error returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid mfcc config")

// Config holds the construction parameters of a Transform.
type Config struct {
	SampleRate          int          `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`                            // Hz, only used for the mel scale
	BufferSize          int          `json:"buffer_size" yaml:"buffer_size" mapstructure:"buffer_size"`                            // samples per incoming block
	NumFilters          int          `json:"num_filters" yaml:"num_filters" mapstructure:"num_filters"`                            // mel bands (default: 40)
	NumCoefficients     int          `json:"num_coefficients" yaml:"num_coefficients" mapstructure:"num_coefficients"`             // cepstra per block (default: 16)
	NormalizationLength int          `json:"normalization_length" yaml:"normalization_length" mapstructure:"normalization_length"` // mean divisor / window (default: 5)
	History             HistoryMode  `json:"history" yaml:"history" mapstructure:"history"`                                        // default: literal
	Analyzer            AnalyzerKind `json:"analyzer" yaml:"analyzer" mapstructure:"analyzer"`                                     // default: gonum
	PeriodicWindow      bool         `json:"periodic_window" yaml:"periodic_window" mapstructure:"periodic_window"`                // Hamming period N instead of N-1
}

// DefaultConfig returns the standard 40-filter, 16-coefficient setup
func DefaultConfig(sampleRate, bufferSize int) Config {
	return Config{
		SampleRate:          sampleRate,
		BufferSize:          bufferSize,
		NumFilters:          DefaultNumFilters,
		NumCoefficients:     DefaultNumCoefficients,
		NormalizationLength: DefaultNormalizationLength,
		History:             HistoryLiteral,
		Analyzer:            AnalyzerGonum,
	}
}

// withDefaults fills zero values the same way DefaultConfig would
func (c Config) withDefaults() Config {
	if c.NumFilters == 0 {
		c.NumFilters = DefaultNumFilters
	}
	if c.NumCoefficients == 0 {
		c.NumCoefficients = DefaultNumCoefficients
	}
	if c.NormalizationLength == 0 {
		c.NormalizationLength = DefaultNormalizationLength
	}
	if c.History == "" {
		c.History = HistoryLiteral
	}
	if c.Analyzer == "" {
		c.Analyzer = AnalyzerGonum
	}
	return c
}

// Validate reports the first parameter that cannot build a Transform
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return errors.Wrapf(ErrInvalidConfig, "sample rate must be positive, got %d", c.SampleRate)
	case c.BufferSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "buffer size must be positive, got %d", c.BufferSize)
	case c.NumFilters <= 0:
		return errors.Wrapf(ErrInvalidConfig, "filter count must be positive, got %d", c.NumFilters)
	case c.NumCoefficients <= 0:
		return errors.Wrapf(ErrInvalidConfig, "coefficient count must be positive, got %d", c.NumCoefficients)
	case c.NumCoefficients > c.NumFilters:
		return errors.Wrapf(ErrInvalidConfig, "coefficient count %d exceeds filter count %d", c.NumCoefficients, c.NumFilters)
	case c.NormalizationLength <= 0:
		return errors.Wrapf(ErrInvalidConfig, "normalization length must be positive, got %d", c.NormalizationLength)
	}

	switch c.History {
	case HistoryLiteral, HistoryWindowed:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown history mode %q", c.History)
	}

	switch c.Analyzer {
	case AnalyzerGonum, AnalyzerGoDSP:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown analyzer %q", c.Analyzer)
	}

	return nil
}

// WindowSize is the number of samples in the analysis window (2 × BufferSize)
func (c Config) WindowSize() int {
	return 2 * c.BufferSize
}

// SpectrumSize is the number of non-negative frequency bins (BufferSize + 1)
func (c Config) SpectrumSize() int {
	return c.BufferSize + 1
}

// OutputSize is the length of one coefficient vector (3 × NumCoefficients)
func (c Config) OutputSize() int {
	return 3 * c.NumCoefficients
}
