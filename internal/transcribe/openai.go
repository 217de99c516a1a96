package transcribe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"gymcut/internal/language"
	"gymcut/internal/services"
	"gymcut/internal/transcript"
)

// MaxUploadBytes is the OpenAI transcription endpoint's file size limit.
const MaxUploadBytes = 25 << 20

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "whisper-1"

// OpenAIConfig captures OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// transcriptionClient is the subset of *openai.Client the backend uses.
type transcriptionClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAI transcribes through the OpenAI audio transcription API.
type OpenAI struct {
	model  string
	client transcriptionClient
}

// NewOpenAI builds an OpenAI backend. An API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "openai", "transcribe.openai_api_key or OPENAI_API_KEY is required", nil)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{model: model, client: openai.NewClientWithConfig(clientCfg)}, nil
}

// Name implements Backend.
func (o *OpenAI) Name() string { return "openai" }

// Model returns the API model name.
func (o *OpenAI) Model() string { return o.model }

// Transcribe implements Backend.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath, lang string) (*transcript.Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if info.Size() > MaxUploadBytes {
		return nil, services.Wrap(
			services.ErrValidation,
			"transcribe",
			"openai",
			fmt.Sprintf("audio is %d bytes, over the %d byte upload limit; use the whisperx backend", info.Size(), MaxUploadBytes),
			nil,
		)
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Language: lang,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "transcription request failed", err)
	}
	return fromAudioResponse(resp), nil
}

type timedSpan struct {
	id         int
	start, end float64
	text       string
}

// fromAudioResponse places each word in the segment whose span contains the
// word's midpoint. Words that fall between segments go to the nearest one.
func fromAudioResponse(resp openai.AudioResponse) *transcript.Transcript {
	spans := make([]timedSpan, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		spans = append(spans, timedSpan{id: seg.ID, start: seg.Start, end: seg.End, text: seg.Text})
	}

	words := make([]transcript.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		text := spaced(w.Word)
		if text == "" {
			continue
		}
		words = append(words, transcript.Word{Text: text, Start: w.Start, End: w.End})
	}

	if len(spans) == 0 && len(words) > 0 {
		spans = append(spans, timedSpan{start: words[0].Start, end: words[len(words)-1].End, text: resp.Text})
	}

	out := &transcript.Transcript{
		Language: language.ToISO2(resp.Language),
		Segments: make([]transcript.Segment, len(spans)),
	}
	for i, span := range spans {
		out.Segments[i] = transcript.Segment{
			ID:    span.id,
			Start: span.start,
			End:   span.end,
			Text:  strings.TrimSpace(span.text),
		}
	}
	for _, w := range words {
		idx := segmentForMidpoint(spans, (w.Start+w.End)/2)
		out.Segments[idx].Words = append(out.Segments[idx].Words, w)
	}
	transcript.RebuildText(out)
	if out.Text == "" {
		out.Text = strings.TrimSpace(resp.Text)
	}
	return out
}

func segmentForMidpoint(spans []timedSpan, mid float64) int {
	best := 0
	bestDistance := math.Inf(1)
	for i, span := range spans {
		if mid >= span.start && mid <= span.end {
			return i
		}
		distance := math.Min(math.Abs(mid-span.start), math.Abs(mid-span.end))
		if distance < bestDistance {
			best, bestDistance = i, distance
		}
	}
	return best
}
