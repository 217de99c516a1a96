package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gymcut/internal/captions"
	"gymcut/internal/logging"
	"gymcut/internal/transcript"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var output string
	var mode string
	var transform string
	var format string

	cmd := &cobra.Command{
		Use:   "captions <transcript.json>",
		Short: "Render captions (ASS or SRT) from a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			t, err := transcript.Load(args[0])
			if err != nil {
				return err
			}

			opts := captions.OptionsFromConfig(cfg.Captions)
			if m := strings.TrimSpace(mode); m != "" {
				opts.Mode = captions.Mode(strings.ToLower(m))
			}
			if tr := strings.TrimSpace(transform); tr != "" {
				opts.Transform = captions.Transform(strings.ToLower(tr))
			}

			resolved := strings.ToLower(strings.TrimSpace(format))
			if resolved == "" {
				resolved = captions.FormatForPath(output, cfg.Captions.Format)
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + resolved
			}

			doc, err := captions.Build(t, resolved, opts)
			if err != nil {
				return err
			}
			if err := doc.WriteFile(output); err != nil {
				return fmt.Errorf("write captions: %w", err)
			}
			if resolved == captions.FormatSRT {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				reportSRTIssues(cmd, logger, output, transcript.Duration(t))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %s mode)\n", output, resolved, opts.Mode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Caption file path (default: transcript path with .ass or .srt)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Caption mode: word, accumulate, or karaoke")
	cmd.Flags().StringVarP(&transform, "transform", "t", "", "Text transform: none, upper, lower, or title")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: ass or srt (default: from extension or config)")
	return cmd
}

// reportSRTIssues validates a written SRT file against the transcript length.
// Issues are warnings; the file is kept.
func reportSRTIssues(cmd *cobra.Command, logger *slog.Logger, path string, durationSeconds float64) {
	for _, issue := range captions.ValidateSRT(path, durationSeconds) {
		logging.WarnWithContext(logger, "srt validation issue", "srt_validation",
			logging.String("path", path),
			logging.String("issue", issue),
			logging.String(logging.FieldImpact, "players may show the captions incorrectly"),
		)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", path, issue)
	}
}
