package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sashabaranov/go-openai"

	"gymcut/internal/services"
	"gymcut/internal/testsupport"
)

type fakeTranscriptionClient struct {
	requests []openai.AudioRequest
	resp     openai.AudioResponse
	err      error
}

func (f *fakeTranscriptionClient) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func decodeAudioResponse(t *testing.T, payload string) openai.AudioResponse {
	t.Helper()
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

const verboseResponse = `{
  "language": "english",
  "text": "Push through. Last rep.",
  "segments": [
    {"id": 0, "start": 0.0, "end": 1.2, "text": " Push through."},
    {"id": 1, "start": 2.0, "end": 3.0, "text": " Last rep."}
  ],
  "words": [
    {"word": "Push", "start": 0.0, "end": 0.5},
    {"word": "through", "start": 0.6, "end": 1.2},
    {"word": "Last", "start": 1.5, "end": 2.2},
    {"word": "rep", "start": 2.4, "end": 2.9}
  ]
}`

func TestFromAudioResponseAssignsWordsByMidpoint(t *testing.T) {
	got := fromAudioResponse(decodeAudioResponse(t, verboseResponse))

	if got.Language != "en" {
		t.Fatalf("expected language normalized to en, got %q", got.Language)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got.Segments))
	}
	first, second := got.Segments[0], got.Segments[1]
	if len(first.Words) != 2 || first.Words[1].Text != " through" {
		t.Fatalf("unexpected first segment words: %+v", first.Words)
	}
	// "Last" has midpoint 1.85, between segments; 2.0 is the closer edge.
	if len(second.Words) != 2 || second.Words[0].Text != " Last" {
		t.Fatalf("unexpected second segment words: %+v", second.Words)
	}
	if got.Text != "Push through. Last rep." {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestFromAudioResponseWithoutSegments(t *testing.T) {
	resp := decodeAudioResponse(t, `{"text": "Go", "words": [{"word": "Go", "start": 0.2, "end": 0.4}]}`)
	got := fromAudioResponse(resp)
	if len(got.Segments) != 1 || got.Segments[0].Start != 0.2 || got.Segments[0].End != 0.4 {
		t.Fatalf("expected a synthesized segment, got %+v", got.Segments)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	backend, err := NewOpenAI(OpenAIConfig{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if backend.Model() != DefaultOpenAIModel || backend.Name() != "openai" {
		t.Fatalf("unexpected defaults: %s %s", backend.Name(), backend.Model())
	}
}

func TestOpenAITranscribeRequest(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio.wav")
	testsupport.WriteFile(t, audio, 64)

	fake := &fakeTranscriptionClient{resp: decodeAudioResponse(t, verboseResponse)}
	backend := &OpenAI{model: "whisper-1", client: fake}

	got, err := backend.Transcribe(context.Background(), audio, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("unexpected segments %d", len(got.Segments))
	}
	req := fake.requests[0]
	if req.Format != openai.AudioResponseFormatVerboseJSON || req.Language != "en" || req.FilePath != audio {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.TimestampGranularities) != 2 {
		t.Fatalf("expected word and segment granularities, got %v", req.TimestampGranularities)
	}
}

func TestOpenAITranscribeErrors(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio.wav")
	testsupport.WriteFile(t, audio, 64)

	backend := &OpenAI{model: "whisper-1", client: &fakeTranscriptionClient{err: errors.New("boom")}}
	if _, err := backend.Transcribe(context.Background(), audio, ""); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	big := filepath.Join(t.TempDir(), "big.wav")
	f, err := os.Create(big)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(MaxUploadBytes + 1); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if _, err := backend.Transcribe(context.Background(), big, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected upload limit validation error, got %v", err)
	}
}
