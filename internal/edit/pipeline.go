// Package edit chains transcription, captioning, compositing, and muxing
// into one run that turns a speaker clip and a background clip into a
// captioned edit.
package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gymcut/internal/captions"
	"gymcut/internal/composite"
	"gymcut/internal/config"
	"gymcut/internal/deps"
	"gymcut/internal/logging"
	"gymcut/internal/preflight"
	"gymcut/internal/services"
	"gymcut/internal/transcribe"
	"gymcut/internal/transcript"
)

const stageName = "edit"

// ErrOutputLocked means another run is writing the same output.
var ErrOutputLocked = errors.New("another gymcut run is writing this output")

// Work directory file names.
const (
	TranscriptFile = "transcript.json"
	CaptionsFile   = "captions.ass"
	CaptionedFile  = "captioned.mp4"
	CompositeFile  = "composite.mp4"
)

// Request describes one end-to-end edit.
type Request struct {
	// Foreground is the subject clip that is matted onto the background.
	Foreground string
	// Background is the clip the captions are burned onto.
	Background string
	// Audio supplies the speech for transcription and the final audio
	// track. Defaults to Foreground.
	Audio  string
	Output string
	// Matte is the precomputed alpha matte video for the "matte" matter.
	Matte    string
	Language string
	KeepWork bool
	NoCache  bool
}

// Result reports the outputs of a run.
type Result struct {
	RunID      string
	Output     string
	WorkDir    string
	Segments   int
	Words      int
	CacheHit   bool
	Frames     int
	Skipped    int
	Elapsed    time.Duration
	WorkKept   bool
	Transcript string
}

type transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

type compositor interface {
	Run(ctx context.Context, req composite.Request) (composite.Stats, error)
}

type muxer interface {
	BurnSubtitles(ctx context.Context, input, output, assPath string) error
	CombineVideoAudio(ctx context.Context, video, audio, output string) error
}

// Pipeline runs edits. The stage implementations are injected so each can be
// replaced in tests.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	transcriber transcriber
	compositor  compositor
	muxer       muxer
	checks      func(ctx context.Context, cfg *config.Config) error
	newRunID    func() string
}

// NewPipeline wires a pipeline from its stages.
func NewPipeline(cfg *config.Config, logger *slog.Logger, t transcriber, c compositor, m muxer) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, stageName),
		transcriber: t,
		compositor:  c,
		muxer:       m,
		checks:      Preflight,
		newRunID:    uuid.NewString,
	}
}

// Preflight fails when a required binary, directory, or model is missing.
func Preflight(ctx context.Context, cfg *config.Config) error {
	var problems []string
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if !status.Available && !status.Optional {
			problems = append(problems, fmt.Sprintf("%s: %s", status.Name, status.Detail))
		}
	}
	if lib := deps.RuntimeLibrary(cfg); !lib.Available && !lib.Optional {
		problems = append(problems, fmt.Sprintf("%s: %s", lib.Name, lib.Detail))
	}
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, stageName, "preflight", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Run executes transcribe, captions, burn, composite, and combine in order.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	if req.Audio == "" {
		req.Audio = req.Foreground
	}
	if strings.TrimSpace(req.Output) == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "output", "output path is required", nil)
	}
	output, err := filepath.Abs(req.Output)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "output", req.Output, err)
	}
	req.Output = output

	runID := p.newRunID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, p.logger)

	if err := p.checks(ctx, p.cfg); err != nil {
		return Result{}, err
	}

	lock := flock.New(req.Output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, stageName, "lock output", req.Output, err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "lock output", req.Output, ErrOutputLocked)
	}
	// The lock file stays on disk; removing it would let two runs hold locks
	// on different inodes at the same path.
	defer func() { _ = lock.Unlock() }()

	workDir := filepath.Join(p.cfg.Paths.WorkDir, "edit-"+runID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, stageName, "create work dir", workDir, err)
	}
	result := Result{RunID: runID, Output: req.Output, WorkDir: workDir, WorkKept: req.KeepWork}
	defer func() {
		if req.KeepWork {
			logger.Info("keeping work directory", logging.String("work_dir", workDir))
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			logger.Debug("work directory cleanup failed", logging.Error(err))
		}
	}()

	logger.Info("edit started",
		logging.String("foreground", req.Foreground),
		logging.String("background", req.Background),
		logging.String("audio", req.Audio),
		logging.String("output", req.Output),
	)

	// 1. transcribe
	transcriptPath := filepath.Join(workDir, TranscriptFile)
	tr, err := p.transcriber.Transcribe(ctx, transcribe.Request{
		Input:    req.Audio,
		Output:   transcriptPath,
		Language: req.Language,
		WorkDir:  workDir,
		NoCache:  req.NoCache,
	})
	if err != nil {
		return result, err
	}
	result.Transcript = transcriptPath
	result.CacheHit = tr.CacheHit
	result.Segments = len(tr.Transcript.Segments)
	result.Words = len(transcript.Words(tr.Transcript))
	if result.Words == 0 {
		logging.WarnWithContext(logger, "transcript has no words", "empty_transcript",
			logging.String(logging.FieldImpact, "the edit will have no captions"),
		)
	}

	// 2. captions
	captionsPath := filepath.Join(workDir, CaptionsFile)
	doc, err := captions.Generate(tr.Transcript, captions.OptionsFromConfig(p.cfg.Captions))
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, stageName, "generate captions", "", err)
	}
	if err := doc.WriteFile(captionsPath); err != nil {
		return result, services.Wrap(services.ErrTransient, stageName, "write captions", captionsPath, err)
	}
	logger.Info("captions written", logging.String("path", captionsPath), logging.Int("events", len(doc.Events)))

	// 3. burn captions onto the background
	captionedPath := filepath.Join(workDir, CaptionedFile)
	if err := p.muxer.BurnSubtitles(ctx, req.Background, captionedPath, captionsPath); err != nil {
		return result, err
	}

	// 4. composite the subject over the captioned background
	compositePath := filepath.Join(workDir, CompositeFile)
	stats, err := p.compositor.Run(ctx, composite.Request{
		Foreground: req.Foreground,
		Background: captionedPath,
		Output:     compositePath,
		Matte:      req.Matte,
	})
	if err != nil {
		return result, err
	}
	result.Frames = stats.Frames
	result.Skipped = stats.Skipped

	// 5. combine with the speech audio
	if err := p.muxer.CombineVideoAudio(ctx, compositePath, req.Audio, req.Output); err != nil {
		return result, err
	}

	result.Elapsed = time.Since(started)
	logger.Info("edit complete",
		logging.String("output", req.Output),
		logging.Int("segments", result.Segments),
		logging.Int("words", result.Words),
		logging.Int("frames_processed", result.Frames),
		logging.Int("frames_skipped", result.Skipped),
		logging.Bool("cache_hit", result.CacheHit),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
