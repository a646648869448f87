package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-mfcc/configs"
	"github.com/RyanBlaney/sonido-mfcc/logging"
	"github.com/RyanBlaney/sonido-mfcc/mfcc"
)

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the parameters derived from the configuration",
		Long: `Build a transform from the effective configuration and print its
parameters: window and FFT size, spectrum bins, the mel range and filter
spacing, and the output vector size.

Examples:
  sonido-mfcc describe --sample-rate 8000 --buffer-size 128 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDescribe(cmd)
		},
	}
}

func (a *app) runDescribe(cmd *cobra.Command) (err error) {
	tr, err := mfcc.NewTransformWithConfig(a.config.MFCC, mfcc.WithLogger(a.logger))
	if err != nil {
		return err
	}

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close output")
		}
	}()

	return writeParameters(out, a.config.Output.Format, tr.Parameters())
}

func writeParameters(w io.Writer, format string, params logging.Fields) error {
	switch format {
	case configs.OutputCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"parameter", "value"}); err != nil {
			return errors.Wrap(err, "failed to write csv header")
		}
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if err := cw.Write([]string{key, fmt.Sprint(params[key])}); err != nil {
				return errors.Wrap(err, "failed to write csv row")
			}
		}
		cw.Flush()
		return cw.Error()

	case configs.OutputJSON:
		return json.NewEncoder(w).Encode(params)

	case configs.OutputYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(map[string]any(params)); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()

	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
