package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gymcut/internal/deps"
	"gymcut/internal/media/ffmpegcmd"
	"gymcut/internal/transcript"
)

// WhisperX invocation constants.
const (
	DefaultWhisperXModel = "small"
	CUDAIndexURL         = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL         = "https://pypi.org/simple"
	BatchSize            = "4"
	ChunkSize            = "15"
	VADOnset             = "0.08"
	VADOffset            = "0.07"
	BeamSize             = "5"
	Temperature          = "0.0"
	OutputFormat         = "json"
	CPUDevice            = "cpu"
	CUDADevice           = "cuda"
	CPUComputeType       = "float32"
	VADMethodPyannote    = "pyannote"
	VADMethodSilero      = "silero"
)

// WhisperXConfig captures runtime settings for WhisperX.
type WhisperXConfig struct {
	// Model is the Whisper checkpoint name (e.g. "small", "large-v3").
	Model       string
	CUDAEnabled bool
	// VADMethod selects voice activity detection ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token pyannote needs.
	HFToken string
}

// WhisperX transcribes by running WhisperX through uvx.
type WhisperX struct {
	cfg           WhisperXConfig
	commandRunner ffmpegcmd.Runner
}

// NewWhisperX creates a WhisperX backend.
func NewWhisperX(cfg WhisperXConfig) *WhisperX {
	return &WhisperX{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner ffmpegcmd.Runner) {
	w.commandRunner = runner
}

// Name implements Backend.
func (w *WhisperX) Name() string { return "whisperx" }

// Model returns the configured model name.
func (w *WhisperX) Model() string {
	if w.cfg.Model != "" {
		return w.cfg.Model
	}
	return DefaultWhisperXModel
}

// Transcribe implements Backend. WhisperX writes <base>.json next to the
// audio file, which is decoded into a transcript.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath, language string) (*transcript.Transcript, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("whisperx: audio path required")
	}
	outputDir := filepath.Dir(audioPath)
	args := w.buildArgs(audioPath, outputDir, language)
	if err := w.run(ctx, deps.UVXCommand, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return loadWhisperXJSON(filepath.Join(outputDir, base+".json"))
}

func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load to weights_only=true, which breaks the
	// pyannote checkpoints WhisperX loads.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", name, err, ffmpegcmd.Tail(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (w *WhisperX) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 40)

	if w.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", w.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := w.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && w.cfg.HFToken != "" {
		args = append(args, "--hf_token", w.cfg.HFToken)
	}

	if language != "" {
		args = append(args, "--language", language)
	}

	if w.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

type whisperXWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Score *float64 `json:"score"`
}

type whisperXSegment struct {
	Start float64        `json:"start"`
	End   float64        `json:"end"`
	Text  string         `json:"text"`
	Words []whisperXWord `json:"words"`
}

type whisperXPayload struct {
	Language string            `json:"language"`
	Segments []whisperXSegment `json:"segments"`
}

func loadWhisperXJSON(path string) (*transcript.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whisperx output: %w", err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}

	out := &transcript.Transcript{Language: payload.Language}
	for i, seg := range payload.Segments {
		out.Segments = append(out.Segments, transcript.Segment{
			ID:    i,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
			Words: alignedWords(seg),
		})
	}
	transcript.RebuildText(out)
	return out, nil
}

// alignedWords converts WhisperX words, filling timing for tokens the aligner
// could not place (digits, symbols). A missing start continues from the
// previous word; a missing end runs to the next known start or segment end.
func alignedWords(seg whisperXSegment) []transcript.Word {
	words := make([]transcript.Word, 0, len(seg.Words))
	cursor := seg.Start
	for i, w := range seg.Words {
		text := spaced(w.Word)
		if text == "" {
			continue
		}
		start := cursor
		if w.Start != nil {
			start = *w.Start
		}
		end := nextKnownStart(seg, i+1)
		if w.End != nil {
			end = *w.End
		}
		if end < start {
			end = start
		}
		words = append(words, transcript.Word{
			Text:        text,
			Start:       start,
			End:         end,
			Probability: w.Score,
		})
		cursor = end
	}
	return words
}

func nextKnownStart(seg whisperXSegment, from int) float64 {
	for _, w := range seg.Words[from:] {
		if w.Start != nil {
			return *w.Start
		}
	}
	return seg.End
}
