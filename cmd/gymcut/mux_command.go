package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gymcut/internal/mux"
)

func newMuxCommand(ctx *commandContext) *cobra.Command {
	muxCmd := &cobra.Command{
		Use:   "mux",
		Short: "Burn captions or join video and audio with ffmpeg",
	}
	muxCmd.AddCommand(newMuxBurnCommand(ctx))
	muxCmd.AddCommand(newMuxCombineCommand(ctx))
	return muxCmd
}

func newMuxer(ctx *commandContext) (*mux.Muxer, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return mux.NewMuxer(cfg, logger), nil
}

func newMuxBurnCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "burn <video> <captions.ass>",
		Short: "Render ASS captions onto a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMuxer(ctx)
			if err != nil {
				return err
			}
			if err := m.BurnSubtitles(cmd.Context(), args[0], output, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "captioned.mp4", "Output video path")
	return cmd
}

func newMuxCombineCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "combine <video> <audio>",
		Short: "Take video from one file and audio from another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMuxer(ctx)
			if err != nil {
				return err
			}
			if err := m.CombineVideoAudio(cmd.Context(), args[0], args[1], output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "final.mp4", "Output video path")
	return cmd
}
