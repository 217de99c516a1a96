package transcribe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gymcut/internal/config"
	"gymcut/internal/services"
	"gymcut/internal/testsupport"
	"gymcut/internal/transcript"
)

type fakeBackend struct {
	calls     int
	languages []string
	audio     []string
	result    *transcript.Transcript
	err       error
	block     bool
}

func (f *fakeBackend) Name() string  { return "fake" }
func (f *fakeBackend) Model() string { return "tiny" }

func (f *fakeBackend) Transcribe(ctx context.Context, audioPath, language string) (*transcript.Transcript, error) {
	f.calls++
	f.audio = append(f.audio, audioPath)
	f.languages = append(f.languages, language)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func gappedTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{{
			ID: 0, Start: 0, End: 3, Text: "Go go now",
			Words: []transcript.Word{
				{Text: " Go", Start: 0.0, End: 0.3},
				{Text: " go", Start: 0.4, End: 0.7},
				{Text: " now", Start: 2.0, End: 2.4},
			},
		}},
	}
}

func newTestService(t *testing.T, cfg *config.Config, backend Backend) (*Service, *testsupport.CommandRecorder) {
	t.Helper()
	var svc *Service
	if cfg.Cache.Enabled {
		svc = NewService(cfg, backend, testsupport.MustOpenCache(t, cfg), nil)
	} else {
		svc = NewService(cfg, backend, nil, nil)
	}
	recorder := &testsupport.CommandRecorder{}
	svc.WithCommandRunner(recorder.Run)
	return svc, recorder
}

func TestServiceTranscribeWritesSplitTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &fakeBackend{result: gappedTranscript()}
	svc, recorder := newTestService(t, cfg, backend)

	input := filepath.Join(testsupport.BaseDir(cfg), "media", "talk.mp4")
	testsupport.WriteFile(t, input, 128)

	res, err := svc.Transcribe(context.Background(), Request{Input: input, Language: "English"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	wantOut := filepath.Join(filepath.Dir(input), DefaultOutputName)
	if res.Output != wantOut {
		t.Fatalf("output = %q, want %q", res.Output, wantOut)
	}
	if backend.languages[0] != "en" {
		t.Fatalf("expected normalized language, got %q", backend.languages[0])
	}

	extract := recorder.Last()
	if extract.Name != "ffmpeg" || extract.Flag("-i") != input || extract.Flag("-ar") != "16000" {
		t.Fatalf("unexpected extract call %+v", extract)
	}
	if extract.Output() != backend.audio[0] {
		t.Fatalf("backend got %q, extract wrote %q", backend.audio[0], extract.Output())
	}

	saved, err := transcript.Load(wantOut)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if len(saved.Segments) != 2 {
		t.Fatalf("expected gap split into 2 segments, got %d", len(saved.Segments))
	}
	if saved.Segments[0].Text != "Go go" || saved.Segments[1].ID != 1 || saved.Text != "Go go now" {
		t.Fatalf("unexpected saved transcript %+v", saved)
	}
}

func TestServiceTranscribeUsesCache(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	backend := &fakeBackend{result: gappedTranscript()}
	svc, _ := newTestService(t, cfg, backend)

	input := filepath.Join(testsupport.BaseDir(cfg), "talk.wav")
	testsupport.WriteFile(t, input, 128)
	out := filepath.Join(testsupport.BaseDir(cfg), "out", "t.json")

	first, err := svc.Transcribe(context.Background(), Request{Input: input, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Transcribe(context.Background(), Request{Input: input, Output: out, MaxGap: 5})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("expected miss then hit, got %v %v", first.CacheHit, second.CacheHit)
	}
	if backend.calls != 1 {
		t.Fatalf("expected backend called once, got %d", backend.calls)
	}
	if len(second.Transcript.Segments) != 1 {
		t.Fatalf("larger max gap must keep one segment, got %d", len(second.Transcript.Segments))
	}

	if _, err := svc.Transcribe(context.Background(), Request{Input: input, Output: out, NoCache: true}); err != nil {
		t.Fatal(err)
	}
	if backend.calls != 2 {
		t.Fatalf("NoCache must bypass lookup, calls=%d", backend.calls)
	}
}

func TestServiceTranscribeErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "talk.wav")
	testsupport.WriteFile(t, input, 8)

	t.Run("missing input", func(t *testing.T) {
		svc, _ := newTestService(t, cfg, &fakeBackend{result: gappedTranscript()})
		_, err := svc.Transcribe(context.Background(), Request{Input: input + ".missing"})
		if !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("bad language", func(t *testing.T) {
		svc, _ := newTestService(t, cfg, &fakeBackend{result: gappedTranscript()})
		_, err := svc.Transcribe(context.Background(), Request{Input: input, Language: "klingonese"})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("extract failure", func(t *testing.T) {
		svc, recorder := newTestService(t, cfg, &fakeBackend{result: gappedTranscript()})
		recorder.OnRun = func(testsupport.Call) error { return errors.New("no audio stream") }
		_, err := svc.Transcribe(context.Background(), Request{Input: input})
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected external tool error, got %v", err)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		svc, _ := newTestService(t, cfg, &fakeBackend{err: errors.New("model crashed")})
		_, err := svc.Transcribe(context.Background(), Request{Input: input})
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected external tool error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		timeoutCfg := *cfg
		timeoutCfg.Transcribe.TimeoutSeconds = 1
		svc, _ := newTestService(t, &timeoutCfg, &fakeBackend{block: true})
		_, err := svc.Transcribe(context.Background(), Request{Input: input})
		if !errors.Is(err, services.ErrTimeout) {
			t.Fatalf("expected timeout error, got %v", err)
		}
	})
}

func TestNewBackendSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend, err := NewBackend(cfg)
	if err != nil || backend.Name() != "whisperx" {
		t.Fatalf("expected whisperx default, got %v %v", backend, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithBackend(config.BackendOpenAI))
	backend, err = NewBackend(cfg)
	if err != nil || backend.Name() != "openai" {
		t.Fatalf("expected openai backend, got %v %v", backend, err)
	}

	cfg.Transcribe.Backend = "vosk"
	if _, err := NewBackend(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
