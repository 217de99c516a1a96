package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"gymcut/internal/config"
	"gymcut/internal/services"
	"gymcut/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var lang string
	var maxGap float64
	var backendName string
	var model string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-or-video>",
		Short: "Transcribe speech to a word-timed transcript JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyTranscribeOverrides(cfg, backendName, model)
			if err := applyMaxGapOverride(cmd, cfg, maxGap); err != nil {
				return err
			}

			service, closeFn, err := newTranscribeService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := service.Transcribe(cmd.Context(), transcribe.Request{
				Input:    args[0],
				Output:   output,
				Language: lang,
				NoCache:  noCache,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%d segments, %s/%s", result.Output, len(result.Transcript.Segments), result.Backend, result.Model)
			if result.CacheHit {
				fmt.Fprint(out, ", cached")
			}
			fmt.Fprintln(out, ")")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcript JSON path (default: transcript.json next to the input)")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Spoken language (ISO code or name, \"auto\" to detect)")
	cmd.Flags().Float64Var(&maxGap, "max-gap", 0, "Split segments at word gaps longer than this many seconds (0 splits at every gap)")
	cmd.Flags().StringVar(&backendName, "backend", "", "Transcription backend: whisperx or openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name for the selected backend")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached transcripts")
	return cmd
}

func applyTranscribeOverrides(cfg *config.Config, backendName, model string) {
	if b := strings.ToLower(strings.TrimSpace(backendName)); b != "" {
		cfg.Transcribe.Backend = b
	}
	if m := strings.TrimSpace(model); m != "" {
		if cfg.Transcribe.Backend == config.BackendOpenAI {
			cfg.Transcribe.OpenAIModel = m
		} else {
			cfg.Transcribe.Model = m
		}
	}
}

// applyMaxGapOverride copies --max-gap into the config only when the flag was
// given, so an explicit 0 is honored instead of meaning "unset".
func applyMaxGapOverride(cmd *cobra.Command, cfg *config.Config, maxGap float64) error {
	if !cmd.Flags().Changed("max-gap") {
		return nil
	}
	if maxGap < 0 || math.IsNaN(maxGap) {
		return services.Wrap(services.ErrValidation, "transcribe", "max-gap", fmt.Sprintf("must be >= 0, got %v", maxGap), nil)
	}
	cfg.Transcribe.MaxGap = maxGap
	return nil
}

// newTranscribeService wires the configured backend, cache, and logger. The
// returned func closes the cache.
func newTranscribeService(ctx *commandContext, cfg *config.Config) (*transcribe.Service, func(), error) {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	backend, err := transcribe.NewBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache, err := ctx.openCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}
	return transcribe.NewService(cfg, backend, cache, logger), closeFn, nil
}
