package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gymcut/internal/testsupport"
)

func TestWhisperXBuildArgsCPU(t *testing.T) {
	w := NewWhisperX(WhisperXConfig{Model: "small"})
	args := w.buildArgs("/work/audio.wav", "/work", "en")
	call := testsupport.Call{Name: "uvx", Args: args}

	if args[0] != "--index-url" || args[1] != PypiIndexURL {
		t.Fatalf("expected pypi index first, got %v", args[:2])
	}
	if call.Flag("whisperx") != "/work/audio.wav" {
		t.Fatalf("expected audio after whisperx: %v", args)
	}
	checks := map[string]string{
		"--model":         "small",
		"--output_dir":    "/work",
		"--output_format": "json",
		"--vad_method":    "silero",
		"--language":      "en",
		"--device":        "cpu",
		"--compute_type":  "float32",
	}
	for flag, want := range checks {
		if got := call.Flag(flag); got != want {
			t.Fatalf("%s = %q, want %q", flag, got, want)
		}
	}
	if call.HasArg("--hf_token") {
		t.Fatal("silero must not pass an HF token")
	}
}

func TestWhisperXBuildArgsCUDAPyannote(t *testing.T) {
	w := NewWhisperX(WhisperXConfig{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"})
	call := testsupport.Call{Args: w.buildArgs("a.wav", "/out", "")}

	if call.Flag("--extra-index-url") != PypiIndexURL || call.Flag("--index-url") != CUDAIndexURL {
		t.Fatalf("expected CUDA index urls: %v", call.Args)
	}
	if call.Flag("--device") != "cuda" || call.HasArg("--compute_type") {
		t.Fatalf("unexpected device args: %v", call.Args)
	}
	if call.Flag("--hf_token") != "hf_x" {
		t.Fatalf("expected hf token: %v", call.Args)
	}
	if call.HasArg("--language") {
		t.Fatal("auto-detect must omit --language")
	}
	if call.Flag("--model") != DefaultWhisperXModel {
		t.Fatalf("expected default model, got %q", call.Flag("--model"))
	}
}

func TestWhisperXTranscribeLoadsOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	testsupport.WriteFile(t, audio, 16)

	payload := `{
  "language": "en",
  "segments": [
    {"start": 0.0, "end": 2.0, "text": " Three sets of 10 ", "words": [
      {"word": "Three", "start": 0.1, "end": 0.4, "score": 0.9},
      {"word": "sets", "start": 0.5, "end": 0.8, "score": 0.8},
      {"word": "of", "start": 0.9, "end": 1.0},
      {"word": "10"},
      {"word": "", "start": 1.5, "end": 1.6}
    ]}
  ]
}`
	w := NewWhisperX(WhisperXConfig{})
	var gotName string
	w.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		out := testsupport.Call{Args: args}.Flag("--output_dir")
		return os.WriteFile(filepath.Join(out, "audio.json"), []byte(payload), 0o644)
	})

	got, err := w.Transcribe(context.Background(), audio, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "uvx" {
		t.Fatalf("expected uvx invocation, got %q", gotName)
	}
	if got.Language != "en" || len(got.Segments) != 1 {
		t.Fatalf("unexpected transcript: %+v", got)
	}
	words := got.Segments[0].Words
	if len(words) != 4 {
		t.Fatalf("expected 4 words (empty dropped), got %d", len(words))
	}
	if words[0].Text != " Three" || words[0].Probability == nil || *words[0].Probability != 0.9 {
		t.Fatalf("unexpected first word: %+v", words[0])
	}
	unaligned := words[3]
	if unaligned.Text != " 10" || unaligned.Start != 1.0 || unaligned.End != 1.5 {
		t.Fatalf("expected unaligned word filled from neighbours, got %+v", unaligned)
	}
	if got.Text != "Three sets of 10" {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestWhisperXTranscribeMissingOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	testsupport.WriteFile(t, audio, 16)

	w := NewWhisperX(WhisperXConfig{})
	w.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	_, err := w.Transcribe(context.Background(), audio, "")
	if err == nil || !strings.Contains(err.Error(), "whisperx output") {
		t.Fatalf("expected missing output error, got %v", err)
	}
}
