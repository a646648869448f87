package cmd

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-mfcc/configs"
)

// frameWriter serializes coefficient vectors in one output format
type frameWriter interface {
	WriteFrame(f frame) error
	Flush() error
}

// frameRecord is the structured form of a frame for JSON and YAML
type frameRecord struct {
	Frame      int       `json:"frame" yaml:"frame"`
	Time       float64   `json:"time" yaml:"time"`
	MFCC       []float64 `json:"mfcc" yaml:"mfcc,flow"`
	Delta      []float64 `json:"delta" yaml:"delta,flow"`
	DeltaDelta []float64 `json:"delta_delta" yaml:"delta_delta,flow"`
}

func newFrameWriter(w io.Writer, format string, precision, numCoefficients int) (frameWriter, error) {
	switch format {
	case configs.OutputCSV:
		return newCSVFrameWriter(w, precision, numCoefficients)
	case configs.OutputJSON:
		return &jsonFrameWriter{enc: json.NewEncoder(w), precision: precision, m: numCoefficients}, nil
	case configs.OutputYAML:
		return &yamlFrameWriter{enc: yaml.NewEncoder(w), precision: precision, m: numCoefficients}, nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

// csvFrameWriter writes a header row then one row per frame
type csvFrameWriter struct {
	w         *csv.Writer
	precision int
	row       []string
}

func newCSVFrameWriter(w io.Writer, precision, numCoefficients int) (*csvFrameWriter, error) {
	cw := &csvFrameWriter{
		w:         csv.NewWriter(w),
		precision: precision,
	}

	header := append([]string{"frame", "time"}, coefficientNames(numCoefficients)...)
	if err := cw.w.Write(header); err != nil {
		return nil, errors.Wrap(err, "failed to write csv header")
	}
	cw.row = make([]string, len(header))
	return cw, nil
}

func (c *csvFrameWriter) WriteFrame(f frame) error {
	c.row[0] = strconv.Itoa(f.Index)
	c.row[1] = strconv.FormatFloat(f.Time, 'f', -1, 64)
	for i, v := range f.Values {
		c.row[2+i] = formatValue(v, c.precision)
	}
	return c.w.Write(c.row)
}

func (c *csvFrameWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// jsonFrameWriter writes JSON lines
type jsonFrameWriter struct {
	enc       *json.Encoder
	precision int
	m         int
}

func (j *jsonFrameWriter) WriteFrame(f frame) error {
	return j.enc.Encode(newFrameRecord(f, j.m, j.precision))
}

func (j *jsonFrameWriter) Flush() error { return nil }

// yamlFrameWriter writes one YAML document per frame
type yamlFrameWriter struct {
	enc       *yaml.Encoder
	precision int
	m         int
}

func (y *yamlFrameWriter) WriteFrame(f frame) error {
	return y.enc.Encode(newFrameRecord(f, y.m, y.precision))
}

func (y *yamlFrameWriter) Flush() error {
	return y.enc.Close()
}

func newFrameRecord(f frame, m, precision int) frameRecord {
	values := make([]float64, len(f.Values))
	for i, v := range f.Values {
		values[i] = round(v, precision)
	}
	return frameRecord{
		Frame:      f.Index,
		Time:       f.Time,
		MFCC:       values[:m],
		Delta:      values[m : 2*m],
		DeltaDelta: values[2*m:],
	}
}

// formatValue prints v with precision decimals, or the shortest exact
// representation when precision is negative
func formatValue(v float64, precision int) string {
	if precision < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func round(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}
