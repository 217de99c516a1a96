package transcribe

import (
	"context"
	"fmt"
	"strings"

	"gymcut/internal/config"
	"gymcut/internal/services"
	"gymcut/internal/transcript"
)

// Backend produces a word-timed transcript for an audio file. An empty
// language lets the model detect it.
type Backend interface {
	Name() string
	Model() string
	Transcribe(ctx context.Context, audioPath, language string) (*transcript.Transcript, error)
}

// NewBackend constructs the backend selected by cfg.Transcribe.Backend.
func NewBackend(cfg *config.Config) (Backend, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "select backend", "config is required", nil)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Transcribe.Backend)) {
	case "", config.BackendWhisperX:
		return NewWhisperX(WhisperXConfig{
			Model:       cfg.Transcribe.Model,
			CUDAEnabled: cfg.Transcribe.CUDAEnabled,
			VADMethod:   cfg.Transcribe.VADMethod,
			HFToken:     cfg.Transcribe.HFToken,
		}), nil
	case config.BackendOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.Transcribe.OpenAIAPIKey,
			BaseURL: cfg.Transcribe.OpenAIBaseURL,
			Model:   cfg.Transcribe.OpenAIModel,
		})
	default:
		return nil, services.Wrap(
			services.ErrConfiguration,
			"transcribe",
			"select backend",
			fmt.Sprintf("unknown backend %q", cfg.Transcribe.Backend),
			nil,
		)
	}
}

// spaced returns word text with exactly one leading space, matching the
// Whisper convention that concatenated words form the segment text.
func spaced(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return " " + trimmed
}
