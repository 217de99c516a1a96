package composite

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"gymcut/internal/logging"
)

const progressStage = "composite"

// progressReporter receives the running frame count.
type progressReporter interface {
	Update(done int)
	Finish()
}

// newProgressReporter draws a bar when stderr is a terminal and otherwise
// logs progress in 5% steps.
func newProgressReporter(logger *slog.Logger, total int) progressReporter {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return newBarProgress(os.Stderr, total)
	}
	return newLogProgress(logger, total)
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer, total int) *barProgress {
	limit := total
	if limit <= 0 {
		limit = -1
	}
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("compositing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &barProgress{bar: bar}
}

func (b *barProgress) Update(done int) { _ = b.bar.Set(done) }
func (b *barProgress) Finish()         { _ = b.bar.Finish() }

type logProgress struct {
	logger  *slog.Logger
	total   int
	sampler *logging.ProgressSampler
	started time.Time
	done    int
}

func newLogProgress(logger *slog.Logger, total int) *logProgress {
	return &logProgress{
		logger:  logger,
		total:   total,
		sampler: logging.NewProgressSampler(5),
		started: time.Now(),
	}
}

func (l *logProgress) Update(done int) {
	l.done = done
	percent := -1.0
	if l.total > 0 {
		percent = float64(done) / float64(l.total) * 100
	}
	if !l.sampler.ShouldLog(percent, progressStage) {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldProgressStage, progressStage),
		logging.Int("frames_done", done),
	}
	if percent >= 0 {
		attrs = append(attrs, logging.Float64(logging.FieldProgressPercent, percent))
		if done > 0 {
			elapsed := time.Since(l.started)
			remaining := time.Duration(float64(elapsed) / float64(done) * float64(l.total-done))
			attrs = append(attrs, logging.Duration(logging.FieldProgressETA, remaining.Round(time.Second)))
		}
	}
	l.logger.Info("composite progress", logging.Args(attrs...)...)
}

func (l *logProgress) Finish() {}
