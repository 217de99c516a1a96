package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gymcut/internal/composite"
	"gymcut/internal/config"
)

func newCompositeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var matte string
	var matter string

	cmd := &cobra.Command{
		Use:   "composite <foreground> <background>",
		Short: "Matte the foreground subject onto a new background",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if matter != "" {
				cfg.Composite.Matter = matter
			} else if matte != "" {
				cfg.Composite.Matter = config.MatterMatte
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			stats, err := composite.NewCompositor(cfg, logger).Run(cmd.Context(), composite.Request{
				Foreground: args[0],
				Background: args[1],
				Output:     output,
				Matte:      matte,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d frames, %d skipped)\n", output, stats.Frames, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "composite.mp4", "Output video path")
	cmd.Flags().StringVar(&matte, "matte", "", "Precomputed alpha matte video (implies --matter matte)")
	cmd.Flags().StringVar(&matter, "matter", "", "Alpha source: onnx or matte")
	return cmd
}
