// Package mux burns captions into video and joins video with audio through
// ffmpeg. Outputs are written to a hidden sibling file and renamed into place
// only after ffmpeg succeeds.
package mux

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gymcut/internal/config"
	"gymcut/internal/fileutil"
	"gymcut/internal/logging"
	"gymcut/internal/media/ffmpegcmd"
	"gymcut/internal/services"
)

const stageName = "mux"

// Muxer runs ffmpeg muxing jobs.
type Muxer struct {
	logger       *slog.Logger
	ffmpeg       string
	audioCodec   string
	audioBitrate string
	run          ffmpegcmd.Runner
}

// NewMuxer constructs a muxer from the mux config section.
func NewMuxer(cfg *config.Config, logger *slog.Logger) *Muxer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Muxer{
		logger:       logging.NewComponentLogger(logger, "muxer"),
		ffmpeg:       cfg.FFmpegBinary(),
		audioCodec:   cfg.Mux.AudioCodec,
		audioBitrate: cfg.Mux.AudioBitrate,
		run:          ffmpegcmd.Exec,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r ffmpegcmd.Runner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// BurnSubtitles renders assPath onto input and writes output. Audio is copied.
func (m *Muxer) BurnSubtitles(ctx context.Context, input, output, assPath string) error {
	if err := requireInputs(input, assPath); err != nil {
		return err
	}
	m.logger.Debug("burning subtitles",
		logging.String("input", input),
		logging.String("subtitles", assPath),
		logging.String("output", output),
	)
	return m.execute(ctx, "burn subtitles", output, func(tmp string) []string {
		return ffmpegcmd.BurnSubtitlesArgs(input, assPath, tmp)
	})
}

// CombineVideoAudio takes the video stream of video and the audio stream of
// audio. Video is copied, audio re-encoded, and the output ends with the
// shorter stream.
func (m *Muxer) CombineVideoAudio(ctx context.Context, video, audio, output string) error {
	if err := requireInputs(video, audio); err != nil {
		return err
	}
	m.logger.Debug("combining video and audio",
		logging.String("video", video),
		logging.String("audio", audio),
		logging.String("output", output),
		logging.String("audio_codec", m.audioCodec),
	)
	return m.execute(ctx, "combine", output, func(tmp string) []string {
		return ffmpegcmd.CombineArgs(video, audio, tmp, m.audioCodec, m.audioBitrate)
	})
}

func (m *Muxer) execute(ctx context.Context, operation, output string, build func(tmp string) []string) error {
	if strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, stageName, operation, "output path is required", nil)
	}
	tmpPath := fileutil.TempSibling(output, "mux")
	if err := m.run(ctx, m.ffmpeg, build(tmpPath)...); err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, stageName, operation, "ffmpeg failed", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, operation, "ffmpeg did not produce output", err)
	}
	if err := os.Rename(tmpPath, output); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrTransient, stageName, operation, fmt.Sprintf("rename to %s", output), err)
	}
	m.logger.Info("mux complete",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.String("operation", operation),
		logging.String("output", output),
	)
	return nil
}

func requireInputs(paths ...string) error {
	for _, path := range paths {
		if err := fileutil.RequireFile(path); err != nil {
			return services.Wrap(services.ErrNotFound, stageName, "open input", path, err)
		}
	}
	return nil
}
