package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gymcut/internal/composite"
	"gymcut/internal/config"
	"gymcut/internal/edit"
	"gymcut/internal/mux"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var req edit.Request
	var backendName string
	var model string

	cmd := &cobra.Command{
		Use:   "edit <foreground> <background>",
		Short: "Transcribe, caption, composite, and mux in one run",
		Long: "edit transcribes the speech in the audio source (the foreground by default), burns\n" +
			"the captions onto the background, composites the matted foreground over it, and\n" +
			"muxes the result with the original audio.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyTranscribeOverrides(cfg, backendName, model)
			if req.Matte != "" {
				cfg.Composite.Matter = config.MatterMatte
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			transcriber, closeFn, err := newTranscribeService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			req.Foreground = args[0]
			req.Background = args[1]
			pipeline := edit.NewPipeline(cfg, logger, transcriber, composite.NewCompositor(cfg, logger), mux.NewMuxer(cfg, logger))
			result, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", result.Output)
			fmt.Fprintf(out, "  run id:     %s\n", result.RunID)
			fmt.Fprintf(out, "  captions:   %d segments, %d words (cached transcript: %s)\n", result.Segments, result.Words, yesNo(result.CacheHit))
			fmt.Fprintf(out, "  frames:     %d composited, %d skipped\n", result.Frames, result.Skipped)
			if result.WorkKept {
				fmt.Fprintf(out, "  work dir:   %s\n", result.WorkDir)
			}
			if ctx.logPath != "" {
				fmt.Fprintf(out, "  log:        %s\n", ctx.logPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Output, "output", "o", "edit.mp4", "Final video path")
	cmd.Flags().StringVarP(&req.Audio, "audio", "a", "", "Speech audio source (default: the foreground)")
	cmd.Flags().StringVar(&req.Matte, "matte", "", "Precomputed alpha matte video for the foreground")
	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "Spoken language (ISO code or name, \"auto\" to detect)")
	cmd.Flags().BoolVar(&req.KeepWork, "keep-work", false, "Keep intermediate files in the work directory")
	cmd.Flags().BoolVar(&req.NoCache, "no-cache", false, "Ignore cached transcripts")
	cmd.Flags().StringVar(&backendName, "backend", "", "Transcription backend: whisperx or openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name for the selected backend")
	return cmd
}
