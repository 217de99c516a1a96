package composite

import (
	"context"
	"errors"
	"fmt"

	"gymcut/internal/config"
	"gymcut/internal/media/ffmpegcmd"
)

// Matter separates a subject from its background one frame at a time.
// Matte receives an rgb24 frame and returns the foreground colour (rgb24) and
// a one-byte-per-pixel alpha. It returns io.EOF when it has no more mattes.
type Matter interface {
	Matte(frame []byte) (fgr []byte, alpha []byte, err error)
	Close() error
}

// MatterOptions selects and configures a Matter.
type MatterOptions struct {
	Kind string
	// ONNX settings.
	ModelPath       string
	RuntimeLibrary  string
	DownsampleRatio float64
	// MattePath is the alpha matte video for the "matte" kind.
	MattePath    string
	FFmpegBinary string
}

// MatterOptionsFromConfig reads the composite section.
func MatterOptionsFromConfig(cfg *config.Config) MatterOptions {
	return MatterOptions{
		Kind:            cfg.Composite.Matter,
		ModelPath:       cfg.Composite.ModelPath,
		RuntimeLibrary:  cfg.Composite.RuntimeLibrary,
		DownsampleRatio: cfg.Composite.DownsampleRatio,
		FFmpegBinary:    cfg.FFmpegBinary(),
	}
}

// NewMatter constructs the configured Matter for frames of meta's size.
func NewMatter(ctx context.Context, opts MatterOptions, meta Metadata) (Matter, error) {
	switch opts.Kind {
	case config.MatterONNX, "":
		return NewONNXMatter(opts.ModelPath, opts.RuntimeLibrary, opts.DownsampleRatio, meta.Width, meta.Height)
	case config.MatterMatte:
		if opts.MattePath == "" {
			return nil, errors.New("matte matter requires a matte video")
		}
		binary := opts.FFmpegBinary
		if binary == "" {
			binary = ffmpegcmd.Binary
		}
		reader, err := OpenReader(ctx, binary, opts.MattePath, ffmpegcmd.PixFmtGray, meta.Width, meta.Height, 1)
		if err != nil {
			return nil, err
		}
		return NewMatteVideo(reader), nil
	default:
		return nil, fmt.Errorf("unknown matter %q", opts.Kind)
	}
}

// MatteVideo reads alpha from a precomputed matte video. The foreground is
// the source frame unchanged.
type MatteVideo struct {
	frames *FrameReader
	buf    []byte
}

// NewMatteVideo wraps a reader of single-channel frames.
func NewMatteVideo(frames *FrameReader) *MatteVideo {
	return &MatteVideo{frames: frames, buf: make([]byte, frames.FrameSize())}
}

// Matte implements Matter.
func (m *MatteVideo) Matte(frame []byte) ([]byte, []byte, error) {
	if err := m.frames.Next(m.buf); err != nil {
		return nil, nil, err
	}
	return frame, m.buf, nil
}

// Close implements Matter.
func (m *MatteVideo) Close() error {
	return m.frames.Close()
}
