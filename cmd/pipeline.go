package cmd

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-mfcc/logging"
	"github.com/RyanBlaney/sonido-mfcc/mfcc"
	"github.com/RyanBlaney/sonido-mfcc/transcode"
)

// frame is one coefficient vector and its position in the stream.
// Values is reused by the next frame.
type frame struct {
	Index  int
	Time   float64 // seconds from the start of the stream to the block start
	Values []float64
}

// streamSummary describes a processed stream
type streamSummary struct {
	Info    transcode.StreamInfo
	Frames  int
	Samples int // samples read from the stream, excluding tail padding
}

// process decodes r block by block and hands every coefficient vector to fn.
// It stops early when ctx is cancelled or fn fails.
func (a *app) process(ctx context.Context, r io.Reader, path string, fn func(frame) error) (streamSummary, error) {
	cfg := a.config.MFCC

	br, err := transcode.NewBlockReader(r, cfg.BufferSize, a.config.DecoderConfig(path))
	if err != nil {
		return streamSummary{}, errors.Wrapf(err, "failed to open %s", path)
	}

	tr, err := mfcc.NewTransformWithConfig(cfg, mfcc.WithLogger(a.logger))
	if err != nil {
		return streamSummary{}, err
	}

	summary := streamSummary{Info: br.Info()}
	block := make([]int16, tr.BufferSize())
	f := frame{Values: make([]float64, tr.OutputSize())}

	for {
		if err := ctx.Err(); err != nil {
			return summary, errors.Wrap(err, "processing interrupted")
		}

		n, err := br.ReadBlock(block)
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, err
		}

		tr.Transform(block, f.Values)
		f.Index = summary.Frames
		f.Time = float64(summary.Frames*tr.BufferSize()) / float64(tr.SampleRate())

		if err := fn(f); err != nil {
			return summary, err
		}

		summary.Frames++
		summary.Samples += n
	}

	a.logger.Info("stream processed", logging.Fields{
		"path":     path,
		"format":   summary.Info.Format,
		"channels": summary.Info.Channels,
		"frames":   summary.Frames,
		"seconds":  float64(summary.Samples) / float64(tr.SampleRate()),
	})

	return summary, nil
}
