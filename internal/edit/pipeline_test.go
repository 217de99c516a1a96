package edit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"gymcut/internal/composite"
	"gymcut/internal/config"
	"gymcut/internal/services"
	"gymcut/internal/testsupport"
	"gymcut/internal/transcribe"
	"gymcut/internal/transcript"
)

type recorder struct {
	steps []string
}

type fakeTranscriber struct {
	rec *recorder
	req transcribe.Request
	err error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req transcribe.Request) (transcribe.Result, error) {
	f.rec.steps = append(f.rec.steps, "transcribe")
	f.req = req
	if f.err != nil {
		return transcribe.Result{}, f.err
	}
	t := &transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{{
			ID: 0, Start: 0, End: 1, Text: "Push harder",
			Words: []transcript.Word{
				{Text: " Push", Start: 0, End: 0.4},
				{Text: " harder", Start: 0.5, End: 1},
			},
		}},
	}
	if err := transcript.Save(req.Output, t); err != nil {
		return transcribe.Result{}, err
	}
	return transcribe.Result{Output: req.Output, Transcript: t, CacheHit: true}, nil
}

type fakeCompositor struct {
	rec *recorder
	req composite.Request
	err error
}

func (f *fakeCompositor) Run(_ context.Context, req composite.Request) (composite.Stats, error) {
	f.rec.steps = append(f.rec.steps, "composite")
	f.req = req
	if f.err != nil {
		return composite.Stats{}, f.err
	}
	if err := os.WriteFile(req.Output, []byte("composite"), 0o644); err != nil {
		return composite.Stats{}, err
	}
	return composite.Stats{Frames: 90, Skipped: 2}, nil
}

type fakeMuxer struct {
	rec      *recorder
	burnArgs []string
	combine  []string
	assText  string
}

func (f *fakeMuxer) BurnSubtitles(_ context.Context, input, output, assPath string) error {
	f.rec.steps = append(f.rec.steps, "burn")
	f.burnArgs = []string{input, output, assPath}
	data, err := os.ReadFile(assPath)
	if err != nil {
		return err
	}
	f.assText = string(data)
	return os.WriteFile(output, []byte("captioned"), 0o644)
}

func (f *fakeMuxer) CombineVideoAudio(_ context.Context, video, audio, output string) error {
	f.rec.steps = append(f.rec.steps, "combine")
	f.combine = []string{video, audio, output}
	return os.WriteFile(output, []byte("final"), 0o644)
}

type fixture struct {
	cfg        *config.Config
	pipeline   *Pipeline
	rec        *recorder
	trans      *fakeTranscriber
	compositor *fakeCompositor
	muxer      *fakeMuxer
	req        Request
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	rec := &recorder{}
	f := &fixture{
		cfg:        cfg,
		rec:        rec,
		trans:      &fakeTranscriber{rec: rec},
		compositor: &fakeCompositor{rec: rec},
		muxer:      &fakeMuxer{rec: rec},
		req: Request{
			Foreground: filepath.Join(base, "speaker.mp4"),
			Background: filepath.Join(base, "gym.mp4"),
			Output:     filepath.Join(base, "out", "edit.mp4"),
		},
	}
	testsupport.WriteFile(t, f.req.Foreground, 8)
	testsupport.WriteFile(t, f.req.Background, 8)
	if err := os.MkdirAll(filepath.Dir(f.req.Output), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f.pipeline = NewPipeline(cfg, nil, f.trans, f.compositor, f.muxer)
	f.pipeline.checks = func(context.Context, *config.Config) error { return nil }
	f.pipeline.newRunID = func() string { return "run-1" }
	return f
}

func TestRunChainsStagesInOrder(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Run(context.Background(), f.req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "transcribe,burn,composite,combine"
	if got := strings.Join(f.rec.steps, ","); got != want {
		t.Fatalf("stage order = %s, want %s", got, want)
	}

	workDir := filepath.Join(f.cfg.Paths.WorkDir, "edit-run-1")
	if result.RunID != "run-1" || result.WorkDir != workDir {
		t.Fatalf("unexpected run identity %+v", result)
	}
	if f.trans.req.Input != f.req.Foreground {
		t.Fatalf("audio should default to the foreground, got %q", f.trans.req.Input)
	}
	if f.muxer.burnArgs[0] != f.req.Background || f.muxer.burnArgs[2] != filepath.Join(workDir, CaptionsFile) {
		t.Fatalf("unexpected burn args %v", f.muxer.burnArgs)
	}
	if !strings.Contains(f.muxer.assText, "Dialogue: 0,0:00:00.00,0:00:00.40,Default,,0,0,0,,Push") {
		t.Fatalf("captions missing first word:\n%s", f.muxer.assText)
	}
	if f.compositor.req.Background != filepath.Join(workDir, CaptionedFile) {
		t.Fatalf("composite must use the captioned background, got %q", f.compositor.req.Background)
	}
	if f.muxer.combine[0] != filepath.Join(workDir, CompositeFile) || f.muxer.combine[1] != f.req.Foreground {
		t.Fatalf("unexpected combine args %v", f.muxer.combine)
	}
	if result.Frames != 90 || result.Skipped != 2 || result.Words != 2 || !result.CacheHit {
		t.Fatalf("unexpected result %+v", result)
	}
	if data, err := os.ReadFile(f.req.Output); err != nil || string(data) != "final" {
		t.Fatalf("final output missing: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("work dir should be removed: %v", err)
	}
}

func TestRunReleasesOutputLockInPlace(t *testing.T) {
	f := newFixture(t)
	lockPath := f.req.Output + ".lock"

	for i := range 2 {
		if _, err := f.pipeline.Run(context.Background(), f.req); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if _, err := os.Stat(lockPath); err != nil {
			t.Fatalf("lock file should stay on disk after run %d: %v", i+1, err)
		}
	}

	next := flock.New(lockPath)
	ok, err := next.TryLock()
	if err != nil || !ok {
		t.Fatalf("lock should be free after the run: ok=%v err=%v", ok, err)
	}
	_ = next.Unlock()
}

func TestRunKeepsWorkDir(t *testing.T) {
	f := newFixture(t)
	f.req.KeepWork = true
	f.req.Audio = filepath.Join(testsupport.BaseDir(f.cfg), "voice.wav")
	testsupport.WriteFile(t, f.req.Audio, 8)

	result, err := f.pipeline.Run(context.Background(), f.req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.WorkKept {
		t.Fatal("expected WorkKept")
	}
	for _, name := range []string{TranscriptFile, CaptionsFile, CaptionedFile, CompositeFile} {
		if _, err := os.Stat(filepath.Join(result.WorkDir, name)); err != nil {
			t.Fatalf("expected %s in work dir: %v", name, err)
		}
	}
	if f.muxer.combine[1] != f.req.Audio {
		t.Fatalf("combine should use the audio source, got %q", f.muxer.combine[1])
	}
}

func TestRunRejectsLockedOutput(t *testing.T) {
	f := newFixture(t)
	held := flock.New(f.req.Output + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err = f.pipeline.Run(context.Background(), f.req)
	if !errors.Is(err, ErrOutputLocked) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrOutputLocked, got %v", err)
	}
	if len(f.rec.steps) != 0 {
		t.Fatalf("no stage should run, got %v", f.rec.steps)
	}
}

func TestRunStopsOnStageFailure(t *testing.T) {
	f := newFixture(t)
	f.compositor.err = services.Wrap(services.ErrExternalTool, "composite", "encode", "", errors.New("boom"))

	_, err := f.pipeline.Run(context.Background(), f.req)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if got := strings.Join(f.rec.steps, ","); got != "transcribe,burn,composite" {
		t.Fatalf("unexpected stages %s", got)
	}
	if _, err := os.Stat(f.req.Output); !os.IsNotExist(err) {
		t.Fatal("output must not exist after a failed run")
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.WorkDir, "edit-run-1")); !os.IsNotExist(err) {
		t.Fatal("work dir should be removed after failure")
	}
}

func TestRunPreflightFailure(t *testing.T) {
	f := newFixture(t)
	f.pipeline.checks = func(context.Context, *config.Config) error {
		return services.Wrap(services.ErrConfiguration, "edit", "preflight", "FFmpeg: binary \"ffmpeg\" not found", nil)
	}
	_, err := f.pipeline.Run(context.Background(), f.req)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(f.rec.steps) != 0 {
		t.Fatalf("no stage should run, got %v", f.rec.steps)
	}
}

func TestRunRequiresOutput(t *testing.T) {
	f := newFixture(t)
	f.req.Output = ""
	if _, err := f.pipeline.Run(context.Background(), f.req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPreflightReportsMissingBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Composite.Matter = config.MatterMatte
	t.Setenv("PATH", t.TempDir())

	err := Preflight(context.Background(), cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("error should name ffmpeg: %v", err)
	}
}

func TestPreflightFindsStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Composite.Matter = config.MatterMatte

	err := Preflight(context.Background(), cfg)
	if err == nil {
		return
	}
	for _, name := range []string{"FFmpeg", "FFprobe", "uvx"} {
		if strings.Contains(err.Error(), name+":") {
			t.Fatalf("%s should be found on PATH: %v", name, err)
		}
	}
}
