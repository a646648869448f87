package configs

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mfcc/logging"
	"github.com/RyanBlaney/sonido-mfcc/mfcc"
	"github.com/RyanBlaney/sonido-mfcc/transcode"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// SONIDO_MFCC_MFCC_BUFFER_SIZE=256
const EnvPrefix = "SONIDO_MFCC"

// Output formats understood by the CLI writers
const (
	OutputCSV  = "csv"
	OutputJSON = "json" // one JSON object per line
	OutputYAML = "yaml"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Input stream
	Audio AudioConfig `mapstructure:"audio" yaml:"audio"`

	// Feature extraction
	MFCC mfcc.Config `mapstructure:"mfcc" yaml:"mfcc"`

	// Result writing
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// AudioConfig describes how input files are decoded
type AudioConfig struct {
	Format   transcode.Format `mapstructure:"format" yaml:"format"`
	Channels int              `mapstructure:"channels" yaml:"channels"` // raw input only
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	Precision int    `mapstructure:"precision" yaml:"precision"` // decimal places, -1 for shortest exact
	File      string `mapstructure:"file" yaml:"file"`           // empty or "-" for stdout
}

// NewViper returns a viper instance with defaults applied and environment
// overrides enabled
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig decodes and validates the configuration held by v. A nil v
// reads the global viper instance.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig checks the settings that viper cannot check while decoding
func ValidateConfig(config *Config) error {
	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}

	switch config.Audio.Format {
	case transcode.FormatAuto, transcode.FormatRaw, transcode.FormatWAV:
	default:
		return errors.Errorf("audio format must be auto, raw or wav, got %q", config.Audio.Format)
	}

	if config.Audio.Channels <= 0 {
		return errors.Errorf("audio channels must be positive, got %d", config.Audio.Channels)
	}

	switch config.Output.Format {
	case OutputCSV, OutputJSON, OutputYAML:
	default:
		return errors.Errorf("output format must be csv, json or yaml, got %q", config.Output.Format)
	}

	if config.Output.Precision < -1 || config.Output.Precision > 17 {
		return errors.Errorf("output precision must be between -1 and 17, got %d", config.Output.Precision)
	}

	if err := config.MFCC.Validate(); err != nil {
		return errors.Wrap(err, "mfcc")
	}

	return nil
}

// DecoderConfig builds the transcode settings for an input at path
func (c *Config) DecoderConfig(path string) *transcode.DecoderConfig {
	return &transcode.DecoderConfig{
		Format:     transcode.ResolveFormat(c.Audio.Format, path),
		SampleRate: c.MFCC.SampleRate,
		Channels:   c.Audio.Channels,
	}
}

// Level returns the parsed log level, falling back to info
func (c *Config) Level() logging.Level {
	if c.Verbose {
		return logging.DebugLevel
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
