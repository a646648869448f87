package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newExtractCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file|->",
		Short: "Write the coefficient vector of every block",
		Long: `Stream a 16-bit PCM file (raw or WAV) through the MFCC transform and write
one row per block: the cepstra, their deltas and their delta-deltas.

WAV files must already be at --sample-rate; input is never resampled.
Multi-channel input is down-mixed to mono.

Examples:
  # CSV to stdout
  sonido-mfcc extract speech.wav

  # headerless 8 kHz stereo from stdin, JSON lines to a file
  sonido-mfcc extract - --format raw --channels 2 --sample-rate 8000 -o json --output-file out.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args[0])
		},
	}
}

func (a *app) runExtract(cmd *cobra.Command, path string) (err error) {
	in, closeIn, err := a.input(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close output")
		}
	}()

	w, err := newFrameWriter(out, a.config.Output.Format, a.config.Output.Precision, a.config.MFCC.NumCoefficients)
	if err != nil {
		return err
	}

	if _, err := a.process(cmd.Context(), in, path, w.WriteFrame); err != nil {
		return err
	}

	return errors.Wrap(w.Flush(), "failed to flush output")
}
