package composite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gymcut/internal/config"
	"gymcut/internal/fileutil"
	"gymcut/internal/logging"
	"gymcut/internal/media/ffmpegcmd"
	"gymcut/internal/services"
)

const stageName = "composite"

// Request describes one background replacement.
type Request struct {
	// Foreground holds the subject; its size and frame rate define the output.
	Foreground string
	// Background is scaled to the foreground size.
	Background string
	Output     string
	// Matte is the alpha matte video used by the "matte" matter.
	Matte string
}

// Stats reports how a run went.
type Stats struct {
	Frames   int
	Skipped  int
	Metadata Metadata
	Elapsed  time.Duration
}

type framePair struct {
	index int
	fg    []byte
	bg    []byte
}

// Compositor runs the decode, matte, and encode pipeline.
type Compositor struct {
	cfg    *config.Config
	logger *slog.Logger

	probe       func(ctx context.Context, path string) (Metadata, error)
	openReader  func(ctx context.Context, path, pixFmt string, width, height, bpp int) (*FrameReader, error)
	openWriter  func(ctx context.Context, output string, meta Metadata) (*FrameWriter, error)
	newMatter   func(ctx context.Context, opts MatterOptions, meta Metadata) (Matter, error)
	newProgress func(logger *slog.Logger, total int) progressReporter
}

// NewCompositor wires the compositor to ffmpeg, ffprobe, and the configured matter.
func NewCompositor(cfg *config.Config, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Compositor{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, stageName),
		newMatter:   NewMatter,
		newProgress: newProgressReporter,
	}
	c.probe = func(ctx context.Context, path string) (Metadata, error) {
		return ProbeMetadata(ctx, cfg.FFprobeBinary(), path)
	}
	c.openReader = func(ctx context.Context, path, pixFmt string, width, height, bpp int) (*FrameReader, error) {
		return OpenReader(ctx, cfg.FFmpegBinary(), path, pixFmt, width, height, bpp)
	}
	c.openWriter = func(ctx context.Context, output string, meta Metadata) (*FrameWriter, error) {
		return OpenWriter(ctx, cfg.FFmpegBinary(), output, meta, cfg.Composite.VideoCodec, cfg.Composite.PixelFormat)
	}
	return c
}

// Run composites req.Foreground over req.Background into req.Output. The
// loop ends with the shorter input. Frames whose alpha is unusable are
// dropped with a warning.
func (c *Compositor) Run(ctx context.Context, req Request) (Stats, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, c.logger)

	for _, input := range []string{req.Foreground, req.Background} {
		if err := fileutil.RequireFile(input); err != nil {
			return Stats{}, services.Wrap(services.ErrNotFound, stageName, "open input", input, err)
		}
	}
	if req.Output == "" {
		return Stats{}, services.Wrap(services.ErrValidation, stageName, "output", "output path is required", nil)
	}

	meta, err := c.probe(ctx, req.Foreground)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrExternalTool, stageName, "probe foreground", req.Foreground, err)
	}
	logger.Info("compositing",
		logging.String("foreground", req.Foreground),
		logging.String("background", req.Background),
		logging.Int("width", meta.Width),
		logging.Int("height", meta.Height),
		logging.Float64("fps", meta.FPS),
		logging.Int("frames", meta.Frames),
		logging.String("matter", c.cfg.Composite.Matter),
	)

	matterOpts := MatterOptionsFromConfig(c.cfg)
	matterOpts.MattePath = req.Matte
	matter, err := c.newMatter(ctx, matterOpts, meta)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrConfiguration, stageName, "load matter", c.cfg.Composite.Matter, err)
	}
	defer func() {
		if err := matter.Close(); err != nil {
			logger.Debug("matter close failed", logging.Error(err))
		}
	}()

	tmpOutput := fileutil.TempSibling(req.Output, "composite")
	stats, err := c.pipeline(ctx, logger, req, tmpOutput, meta, matter)
	if err != nil {
		_ = os.Remove(tmpOutput)
		return stats, err
	}
	if stats.Frames == 0 {
		_ = os.Remove(tmpOutput)
		return stats, services.Wrap(services.ErrValidation, stageName, "composite", "no frames were composited", nil)
	}
	if err := os.Rename(tmpOutput, req.Output); err != nil {
		_ = os.Remove(tmpOutput)
		return stats, services.Wrap(services.ErrTransient, stageName, "finalize output", req.Output, err)
	}

	stats.Elapsed = time.Since(started)
	logger.Info("composite complete",
		logging.String("output", req.Output),
		logging.Int("frames_processed", stats.Frames),
		logging.Int("frames_skipped", stats.Skipped),
		logging.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

func (c *Compositor) pipeline(ctx context.Context, logger *slog.Logger, req Request, output string, meta Metadata, matter Matter) (Stats, error) {
	stats := Stats{Metadata: meta}

	fgReader, err := c.openReader(ctx, req.Foreground, ffmpegcmd.PixFmtRGB24, meta.Width, meta.Height, 3)
	if err != nil {
		return stats, services.Wrap(services.ErrExternalTool, stageName, "decode foreground", req.Foreground, err)
	}
	bgReader, err := c.openReader(ctx, req.Background, ffmpegcmd.PixFmtRGB24, meta.Width, meta.Height, 3)
	if err != nil {
		_ = fgReader.Close()
		return stats, services.Wrap(services.ErrExternalTool, stageName, "decode background", req.Background, err)
	}
	writer, err := c.openWriter(ctx, output, meta)
	if err != nil {
		_ = fgReader.Close()
		_ = bgReader.Close()
		return stats, services.Wrap(services.ErrExternalTool, stageName, "encode output", output, err)
	}

	alpha := NewAlphaProcessor(meta.Width, meta.Height, AlphaOptionsFromConfig(c.cfg.Composite))
	progress := c.newProgress(logger, meta.Frames)
	frameSize := meta.Width * meta.Height * 3

	pairs := make(chan framePair, 2)
	blended := make(chan []byte, 2)
	free := make(chan []byte, 4)
	for range cap(free) {
		free <- make([]byte, frameSize)
	}

	// mattesDone stops the decoder when the matter runs out first.
	mattesDone := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pairs)
		for index := 1; ; index++ {
			select {
			case <-mattesDone:
				return nil
			default:
			}
			fg := make([]byte, frameSize)
			bg := make([]byte, frameSize)
			fgErr := fgReader.Next(fg)
			bgErr := bgReader.Next(bg)
			if errors.Is(fgErr, io.EOF) || errors.Is(bgErr, io.EOF) {
				logger.Info("No more frames", logging.Int("frames_read", index-1))
				return nil
			}
			if fgErr != nil {
				return services.Wrap(services.ErrExternalTool, stageName, "read foreground", "", fgErr)
			}
			if bgErr != nil {
				return services.Wrap(services.ErrExternalTool, stageName, "read background", "", bgErr)
			}
			select {
			case pairs <- framePair{index: index, fg: fg, bg: bg}:
			case <-mattesDone:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		defer close(blended)
		for pair := range pairs {
			fgr, matte, err := matter.Matte(pair.fg)
			if errors.Is(err, io.EOF) {
				logger.Info("No more frames", logging.String("source", "matte"))
				close(mattesDone)
				return nil
			}
			if err != nil {
				return services.Wrap(services.ErrExternalTool, stageName, "matte frame", fmt.Sprintf("frame %d", pair.index), err)
			}
			if len(matte) != meta.Width*meta.Height || len(fgr) != frameSize {
				stats.Skipped++
				logging.WarnWithContext(logger, "skipping frame with invalid alpha", "invalid_alpha",
					logging.Int("frame", pair.index),
					logging.Int("alpha_bytes", len(matte)),
					logging.Int("expected_bytes", meta.Width*meta.Height),
					logging.String(logging.FieldImpact, "frame dropped from output"),
				)
				continue
			}
			if err := alpha.Process(gctx, matte); err != nil {
				return err
			}
			var out []byte
			select {
			case out = <-free:
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := Blend(out, fgr, pair.bg, matte); err != nil {
				return err
			}
			select {
			case blended <- out:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for frame := range blended {
			if err := writer.Write(frame); err != nil {
				return services.Wrap(services.ErrExternalTool, stageName, "write frame", "", err)
			}
			stats.Frames++
			progress.Update(stats.Frames)
			free <- frame
		}
		return nil
	})

	runErr := g.Wait()
	progress.Finish()

	// Closing a reader drains what is left so its ffmpeg can exit.
	closeErr := errors.Join(fgReader.Close(), bgReader.Close())
	writeErr := writer.Close()
	switch {
	case runErr != nil:
		return stats, runErr
	case writeErr != nil:
		return stats, services.Wrap(services.ErrExternalTool, stageName, "encode output", output, writeErr)
	case closeErr != nil:
		logging.WarnWithContext(logger, "decoder exited with an error", "decoder_exit",
			logging.Error(closeErr),
			logging.String(logging.FieldImpact, "output ends at the last frame decoded"),
		)
	}
	return stats, nil
}
