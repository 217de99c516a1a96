package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gymcut/internal/config"
	"gymcut/internal/fileutil"
	"gymcut/internal/language"
	"gymcut/internal/logging"
	"gymcut/internal/media/ffmpegcmd"
	"gymcut/internal/services"
	"gymcut/internal/transcache"
	"gymcut/internal/transcript"
)

// DefaultOutputName is written next to the input when no output is given.
const DefaultOutputName = "transcript.json"

const stageName = "transcribe"

// Request describes one transcription.
type Request struct {
	// Input is an audio or video file.
	Input string
	// Output is the transcript JSON path; defaults to transcript.json next to Input.
	Output string
	// Language overrides transcribe.language when set ("auto" detects).
	Language string
	// MaxGap overrides transcribe.max_gap when positive.
	MaxGap float64
	// WorkDir holds the extracted audio. A temporary directory under
	// paths.work_dir is created and removed when empty.
	WorkDir string
	// NoCache skips the cache lookup; the fresh result is still stored.
	NoCache bool
}

// Result reports what a transcription produced.
type Result struct {
	Output     string
	Transcript *transcript.Transcript
	CacheHit   bool
	Backend    string
	Model      string
	Elapsed    time.Duration
}

// Service runs transcriptions.
type Service struct {
	cfg           *config.Config
	backend       Backend
	cache         *transcache.Store
	logger        *slog.Logger
	ffmpegBinary  string
	commandRunner ffmpegcmd.Runner
}

// NewService creates a transcription service. cache may be nil.
func NewService(cfg *config.Config, backend Backend, cache *transcache.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:          cfg,
		backend:      backend,
		cache:        cache,
		logger:       logging.NewComponentLogger(logger, stageName),
		ffmpegBinary: cfg.FFmpegBinary(),
	}
}

// WithCommandRunner sets a custom runner for ffmpeg (for testing).
func (s *Service) WithCommandRunner(runner ffmpegcmd.Runner) {
	s.commandRunner = runner
}

// Transcribe extracts audio from req.Input, consults the cache, runs the
// backend on a miss, splits segments at word gaps, and writes the result.
func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger)

	if err := fileutil.RequireFile(req.Input); err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, stageName, "open input", req.Input, err)
	}
	lang := req.Language
	if strings.TrimSpace(lang) == "" {
		lang = s.cfg.Transcribe.Language
	}
	lang, err := language.Normalize(lang)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "language", "", err)
	}
	maxGap := s.cfg.Transcribe.MaxGap
	if req.MaxGap > 0 {
		maxGap = req.MaxGap
	}
	output := req.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(req.Input), DefaultOutputName)
	}

	result := Result{Output: output, Backend: s.backend.Name(), Model: s.backend.Model()}

	key, err := transcache.KeyFor(req.Input, s.backend.Name(), s.backend.Model(), lang)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, stageName, "hash input", req.Input, err)
	}

	var raw *transcript.Transcript
	if !req.NoCache {
		cached, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			logging.WarnWithContext(logger, "transcript cache lookup failed", "cache_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `gymcut cache purge` if the cache is corrupt"),
				logging.String(logging.FieldImpact, "transcribing without the cache"),
			)
		} else if hit {
			raw = cached
			result.CacheHit = true
		}
	}
	logger.Info("transcription cache decision", logging.Args(logging.DecisionAttrs("transcript_cache", hitLabel(result.CacheHit), key.String())...)...)

	if raw == nil {
		raw, err = s.runBackend(ctx, logger, req, lang)
		if err != nil {
			return Result{}, err
		}
		if err := s.cache.Put(ctx, key, req.Input, raw); err != nil {
			logging.WarnWithContext(logger, "transcript cache store failed", "cache_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next run will transcribe again"),
			)
		}
	}

	final := &transcript.Transcript{
		Language: raw.Language,
		Segments: transcript.SplitSegments(raw.Segments, maxGap),
	}
	if final.Language == "" {
		final.Language = lang
	}
	transcript.RebuildText(final)
	if err := transcript.Validate(final); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate transcript", "", err)
	}
	if err := transcript.Save(output, final); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, stageName, "write transcript", output, err)
	}

	result.Transcript = final
	result.Elapsed = time.Since(started)
	logger.Info("transcription complete",
		logging.String("output", output),
		logging.Int("segments", len(final.Segments)),
		logging.Int("words", len(transcript.Words(final))),
		logging.String("language", language.DisplayName(final.Language)),
		logging.Bool("cache_hit", result.CacheHit),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *Service) runBackend(ctx context.Context, logger *slog.Logger, req Request, lang string) (*transcript.Transcript, error) {
	workDir := req.WorkDir
	if workDir == "" {
		if err := os.MkdirAll(s.cfg.Paths.WorkDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, stageName, "create work dir", s.cfg.Paths.WorkDir, err)
		}
		tmp, err := os.MkdirTemp(s.cfg.Paths.WorkDir, "transcribe-*")
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, stageName, "create work dir", s.cfg.Paths.WorkDir, err)
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create work dir", workDir, err)
	}

	audioPath := filepath.Join(workDir, "audio.wav")
	logger.Info("extracting audio", logging.String("source", req.Input), logging.String("audio", audioPath))
	run := ffmpegcmd.OrDefault(s.commandRunner)
	if err := run(ctx, s.ffmpegBinary, ffmpegcmd.ExtractAudioArgs(req.Input, audioPath)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "extract audio", req.Input, err)
	}

	if timeout := s.cfg.Transcribe.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	logger.Info("running transcription backend",
		logging.String("backend", s.backend.Name()),
		logging.String("model", s.backend.Model()),
		logging.String("language", language.DisplayName(lang)),
	)
	raw, err := s.backend.Transcribe(ctx, audioPath, lang)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, stageName, s.backend.Name(),
				fmt.Sprintf("no result within %ds", s.cfg.Transcribe.TimeoutSeconds), err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrExternalTool) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, stageName, s.backend.Name(), "", err)
	}
	if raw == nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, s.backend.Name(), "backend returned no transcript", nil)
	}
	return raw, nil
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
