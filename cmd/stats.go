package cmd

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-mfcc/configs"
)

// coefficientStats summarizes one output column over a stream
type coefficientStats struct {
	Name   string  `json:"name" yaml:"name"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// streamStats is the result of the stats command
type streamStats struct {
	Frames       int                `json:"frames" yaml:"frames"`
	Seconds      float64            `json:"seconds" yaml:"seconds"`
	Coefficients []coefficientStats `json:"coefficients" yaml:"coefficients"`
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file|->",
		Short: "Summarize every coefficient over a whole stream",
		Long: `Run the MFCC transform over a stream and print the mean, standard
deviation, minimum and maximum of every output coefficient.

Examples:
  sonido-mfcc stats speech.wav -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd, args[0])
		},
	}
}

func (a *app) runStats(cmd *cobra.Command, path string) (err error) {
	in, closeIn, err := a.input(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn()

	names := coefficientNames(a.config.MFCC.NumCoefficients)
	columns := make([][]float64, len(names))

	summary, err := a.process(cmd.Context(), in, path, func(f frame) error {
		for i, v := range f.Values {
			columns[i] = append(columns[i], v)
		}
		return nil
	})
	if err != nil {
		return err
	}

	result := summarize(names, columns)
	result.Seconds = float64(summary.Samples) / float64(a.config.MFCC.SampleRate)

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close output")
		}
	}()

	return writeStats(out, a.config.Output.Format, a.config.Output.Precision, result)
}

// summarize computes per-column statistics. The standard deviation is the
// unbiased estimate and is zero for fewer than two frames.
func summarize(names []string, columns [][]float64) streamStats {
	result := streamStats{Coefficients: make([]coefficientStats, len(names))}
	if len(columns) > 0 {
		result.Frames = len(columns[0])
	}

	for i, name := range names {
		cs := coefficientStats{Name: name}
		col := columns[i]
		if len(col) > 0 {
			cs.Mean, cs.StdDev = stat.MeanStdDev(col, nil)
			if len(col) < 2 {
				cs.StdDev = 0
			}
			cs.Min = floats.Min(col)
			cs.Max = floats.Max(col)
		}
		result.Coefficients[i] = cs
	}
	return result
}

func writeStats(w io.Writer, format string, precision int, s streamStats) error {
	for i := range s.Coefficients {
		c := &s.Coefficients[i]
		c.Mean = round(c.Mean, precision)
		c.StdDev = round(c.StdDev, precision)
		c.Min = round(c.Min, precision)
		c.Max = round(c.Max, precision)
	}

	switch format {
	case configs.OutputCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"coefficient", "mean", "std_dev", "min", "max"}); err != nil {
			return errors.Wrap(err, "failed to write csv header")
		}
		for _, c := range s.Coefficients {
			row := []string{
				c.Name,
				formatValue(c.Mean, precision),
				formatValue(c.StdDev, precision),
				formatValue(c.Min, precision),
				formatValue(c.Max, precision),
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrap(err, "failed to write csv row")
			}
		}
		cw.Flush()
		return cw.Error()

	case configs.OutputJSON:
		return json.NewEncoder(w).Encode(s)

	case configs.OutputYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()

	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
