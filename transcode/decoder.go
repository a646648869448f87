package transcode

import (
	"bufio"
	"encoding/binary"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-mfcc/logging"
)

// Format is the container of a PCM stream
type Format string

const (
	FormatAuto Format = "auto" // pick by file extension
	FormatRaw  Format = "raw"  // headerless little-endian signed 16-bit
	FormatWAV  Format = "wav"  // RIFF/WAVE with 16-bit PCM data
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	bytesPerSample      = 2
)

var (
	// ErrUnsupportedFormat is returned for containers or encodings other
	// than 16-bit PCM
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrSampleRateMismatch is returned when a WAV header disagrees with the
	// configured sample rate. Streams are never resampled.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
)

// StreamInfo describes the decoded stream
type StreamInfo struct {
	Format     Format `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	DataBytes  int64  `json:"data_bytes,omitempty"` // 0 when unknown
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	Format     Format `json:"format" mapstructure:"format"`
	SampleRate int    `json:"sample_rate" mapstructure:"sample_rate"` // required for raw, checked against WAV headers
	Channels   int    `json:"channels" mapstructure:"channels"`       // raw only
}

// DefaultDecoderConfig returns 16 kHz mono with format detection
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		Format:     FormatAuto,
		SampleRate: 16000,
		Channels:   1,
	}
}

// DetectFormat picks a format from the file extension; anything that is not
// .wav/.wave is treated as raw PCM
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	default:
		return FormatRaw
	}
}

// ResolveFormat replaces FormatAuto (or an empty format) with the format
// detected from path. Standard input ("-") is treated as raw PCM.
func ResolveFormat(format Format, path string) Format {
	if format != FormatAuto && format != "" {
		return format
	}
	if path == "-" {
		return FormatRaw
	}
	return DetectFormat(path)
}

// BlockReader cuts a 16-bit PCM stream into fixed-size mono blocks.
// Multi-channel input is down-mixed by averaging the channels of each frame.
type BlockReader struct {
	r         io.Reader
	info      StreamInfo
	blockSize int
	buf       []byte
	logger    logging.Logger
}

// NewBlockReader reads the container header (if any) from r and prepares
// to return blocks of blockSize samples
func NewBlockReader(r io.Reader, blockSize int, config *DecoderConfig) (*BlockReader, error) {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	if blockSize <= 0 {
		return nil, errors.Errorf("block size must be positive, got %d", blockSize)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "pcm_decoder",
		"format":    config.Format,
	})

	br := &BlockReader{
		r:         bufio.NewReader(r),
		blockSize: blockSize,
		logger:    logger,
	}

	switch config.Format {
	case FormatWAV:
		info, err := readWAVHeader(br.r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read wav header")
		}
		if config.SampleRate > 0 && info.SampleRate != config.SampleRate {
			return nil, errors.Wrapf(ErrSampleRateMismatch, "file is %d Hz, configured %d Hz",
				info.SampleRate, config.SampleRate)
		}
		if info.DataBytes > 0 {
			br.r = io.LimitReader(br.r, info.DataBytes)
		}
		br.info = info

	case FormatRaw:
		channels := config.Channels
		if channels <= 0 {
			channels = 1
		}
		if config.SampleRate <= 0 {
			return nil, errors.Errorf("raw pcm needs a sample rate, got %d", config.SampleRate)
		}
		br.info = StreamInfo{
			Format:     FormatRaw,
			SampleRate: config.SampleRate,
			Channels:   channels,
		}

	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", config.Format)
	}

	br.buf = make([]byte, blockSize*br.info.Channels*bytesPerSample)

	logger.Debug("PCM stream opened", logging.Fields{
		"sample_rate": br.info.SampleRate,
		"channels":    br.info.Channels,
		"data_bytes":  br.info.DataBytes,
		"block_size":  blockSize,
	})

	return br, nil
}

// Info returns the stream description
func (br *BlockReader) Info() StreamInfo {
	return br.info
}

// BlockSize returns the number of samples per block
func (br *BlockReader) BlockSize() int {
	return br.blockSize
}

// ReadBlock fills dst (len BlockSize) with the next block and returns how
// many samples came from the stream. A short final block is zero-padded.
// It returns 0, io.EOF once the stream is exhausted.
func (br *BlockReader) ReadBlock(dst []int16) (int, error) {
	if len(dst) != br.blockSize {
		return 0, errors.Errorf("destination holds %d samples, want %d", len(dst), br.blockSize)
	}

	n, err := io.ReadFull(br.r, br.buf)
	switch {
	case err == io.EOF:
		return 0, io.EOF
	case err == io.ErrUnexpectedEOF:
		// partial block, handled below
	case err != nil:
		return 0, errors.Wrap(err, "failed to read pcm data")
	}

	frameBytes := br.info.Channels * bytesPerSample
	frames := n / frameBytes
	if frames == 0 {
		return 0, io.EOF
	}

	decodeFrames(dst[:frames], br.buf[:frames*frameBytes], br.info.Channels)
	if frames < br.blockSize {
		clear(dst[frames:])
		br.logger.Debug("final block zero-padded", logging.Fields{
			"samples": frames,
			"padding": br.blockSize - frames,
		})
	}

	return frames, nil
}

// decodeFrames converts interleaved little-endian frames to mono samples
func decodeFrames(dst []int16, data []byte, channels int) {
	if channels == 1 {
		for i := range dst {
			dst[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
		return
	}

	frameBytes := channels * bytesPerSample
	for i := range dst {
		frame := data[i*frameBytes:]
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(int16(binary.LittleEndian.Uint16(frame[2*c:])))
		}
		dst[i] = int16(sum / channels)
	}
}

// readWAVHeader consumes a RIFF/WAVE header up to the start of the data chunk
func readWAVHeader(r io.Reader) (StreamInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return StreamInfo{}, errors.Wrap(err, "short riff header")
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return StreamInfo{}, errors.Wrap(ErrUnsupportedFormat, "not a RIFF/WAVE file")
	}

	info := StreamInfo{Format: FormatWAV}
	haveFmt := false

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return StreamInfo{}, errors.Wrap(err, "missing data chunk")
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return StreamInfo{}, errors.Wrapf(ErrUnsupportedFormat, "fmt chunk of %d bytes", size)
			}
			var f [16]byte
			if _, err := io.ReadFull(r, f[:]); err != nil {
				return StreamInfo{}, errors.Wrap(err, "short fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(f[0:2])
			info.Channels = int(binary.LittleEndian.Uint16(f[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(f[4:8]))
			bits := binary.LittleEndian.Uint16(f[14:16])

			if audioFormat != wavFormatPCM && audioFormat != wavFormatExtensible {
				return StreamInfo{}, errors.Wrapf(ErrUnsupportedFormat, "wav encoding %d", audioFormat)
			}
			if bits != 16 {
				return StreamInfo{}, errors.Wrapf(ErrUnsupportedFormat, "%d-bit samples", bits)
			}
			if info.Channels <= 0 {
				return StreamInfo{}, errors.Wrapf(ErrUnsupportedFormat, "%d channels", info.Channels)
			}
			if err := skip(r, size-16+size%2); err != nil {
				return StreamInfo{}, err
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return StreamInfo{}, errors.Wrap(ErrUnsupportedFormat, "data chunk before fmt chunk")
			}
			// streaming writers leave the size at 0 or 0xFFFFFFFF
			if size != 0 && size != 0xFFFFFFFF {
				info.DataBytes = size
			}
			return info, nil

		default:
			if err := skip(r, size+size%2); err != nil {
				return StreamInfo{}, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return errors.Wrap(err, "truncated chunk")
	}
	return nil
}
