// Package cmd implements the sonido-mfcc command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mfcc/configs"
	"github.com/RyanBlaney/sonido-mfcc/logging"
	"github.com/RyanBlaney/sonido-mfcc/mfcc"
)

// app carries the state shared by the subcommands of one invocation
type app struct {
	v          *viper.Viper
	configFile string
	config     *configs.Config
	logger     logging.Logger
}

// flagKeys maps command line flags to their configuration keys
var flagKeys = map[string]string{
	"verbose":       "verbose",
	"log-level":     "log_level",
	"format":        "audio.format",
	"channels":      "audio.channels",
	"sample-rate":   "mfcc.sample_rate",
	"buffer-size":   "mfcc.buffer_size",
	"filters":       "mfcc.num_filters",
	"coefficients":  "mfcc.num_coefficients",
	"normalization": "mfcc.normalization_length",
	"history":       "mfcc.history",
	"analyzer":      "mfcc.analyzer",
	"periodic":      "mfcc.periodic_window",
	"output":        "output.format",
	"precision":     "output.precision",
	"output-file":   "output.file",
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree with its own viper instance
func NewRootCommand() *cobra.Command {
	a := &app{v: configs.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "sonido-mfcc",
		Short: "Streaming MFCC feature extraction",
		Long: `Extract mel-frequency cepstral coefficients from 16-bit PCM audio.

Each block of --buffer-size samples produces one vector of cepstral
coefficients followed by their deltas and delta-deltas, normalized by a
running cepstral mean.

Configuration is read from (highest priority first): flags, SONIDO_MFCC_*
environment variables, the --config file, then built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "",
		"config file (default is $HOME/.config/sonido-mfcc/sonido-mfcc.yaml)")

	flags.BoolP("verbose", "v", false, "verbose output (debug logging)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	flags.String("format", "auto", "input format (auto, raw, wav)")
	flags.Int("channels", 1, "interleaved channels of raw input")

	flags.Int("sample-rate", configs.DefaultSampleRate, "sample rate in Hz")
	flags.Int("buffer-size", configs.DefaultBufferSize, "samples per block")
	flags.Int("filters", mfcc.DefaultNumFilters, "number of mel filters")
	flags.Int("coefficients", mfcc.DefaultNumCoefficients, "cepstral coefficients per block")
	flags.Int("normalization", mfcc.DefaultNormalizationLength, "cepstral mean normalization length")
	flags.String("history", string(mfcc.HistoryLiteral), "normalization history (literal, windowed)")
	flags.String("analyzer", string(mfcc.AnalyzerGonum), "FFT implementation (gonum, godsp)")
	flags.Bool("periodic", false, "use a periodic instead of a symmetric Hamming window")

	flags.StringP("output", "o", configs.OutputCSV, "output format (csv, json, yaml)")
	flags.Int("precision", 6, "decimal places in output, -1 for shortest exact")
	flags.String("output-file", "", "write results to a file instead of stdout")

	rootCmd.AddCommand(
		newExtractCommand(a),
		newStatsCommand(a),
		newDescribeCommand(a),
	)

	return rootCmd
}

// initialize reads the config file, binds flags and loads the configuration
func (a *app) initialize(cmd *cobra.Command) error {
	if err := a.readConfigFile(); err != nil {
		return err
	}

	if err := bindFlags(cmd, a.v); err != nil {
		return errors.Wrap(err, "failed to bind flags")
	}

	config, err := configs.LoadConfig(a.v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	a.config = config

	logger := logging.NewWriterLogger(cmd.ErrOrStderr())
	logger.SetLevel(config.Level())
	logging.SetGlobalLogger(logger)
	a.logger = logger.WithFields(logging.Fields{"command": cmd.Name()})

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", logging.Fields{"path": used})
	}

	return nil
}

func (a *app) readConfigFile() error {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", a.configFile)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".config", "sonido-mfcc"))
	}
	a.v.AddConfigPath("./configs")
	a.v.SetConfigName("sonido-mfcc")
	a.v.SetConfigType("yaml")

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read config file")
		}
	}
	return nil
}

// bindFlags binds each cobra flag to its configuration key, so a flag set on
// the command line wins over the file and environment
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// output opens the configured destination. The returned close function is
// a no-op for stdout.
func (a *app) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path := a.config.Output.File
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create output file")
	}
	return f, f.Close, nil
}

// input opens path, or standard input for "-"
func (a *app) input(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open input")
	}
	return f, f.Close, nil
}

// coefficientNames labels the columns of one output vector: c0.., d0..,
// dd0..
func coefficientNames(numCoefficients int) []string {
	names := make([]string, 0, 3*numCoefficients)
	for _, prefix := range []string{"c", "d", "dd"} {
		for i := 0; i < numCoefficients; i++ {
			names = append(names, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	return names
}
