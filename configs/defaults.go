package configs

import (
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mfcc/mfcc"
	"github.com/RyanBlaney/sonido-mfcc/transcode"
)

// Default stream parameters: 16 kHz audio in 10 ms blocks
const (
	DefaultSampleRate = 16000
	DefaultBufferSize = 160
)

// SetDefaults registers the default of every key. Unmarshal only sees
// environment overrides for keys that have a default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")

	v.SetDefault("audio.format", string(transcode.FormatAuto))
	v.SetDefault("audio.channels", 1)

	m := mfcc.DefaultConfig(DefaultSampleRate, DefaultBufferSize)
	v.SetDefault("mfcc.sample_rate", m.SampleRate)
	v.SetDefault("mfcc.buffer_size", m.BufferSize)
	v.SetDefault("mfcc.num_filters", m.NumFilters)
	v.SetDefault("mfcc.num_coefficients", m.NumCoefficients)
	v.SetDefault("mfcc.normalization_length", m.NormalizationLength)
	v.SetDefault("mfcc.history", string(m.History))
	v.SetDefault("mfcc.analyzer", string(m.Analyzer))
	v.SetDefault("mfcc.periodic_window", m.PeriodicWindow)

	v.SetDefault("output.format", OutputCSV)
	v.SetDefault("output.precision", 6)
	v.SetDefault("output.file", "")
}
