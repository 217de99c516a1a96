package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gymcut/internal/config"
	"gymcut/internal/deps"
	"gymcut/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, disk space, and the matting model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failures := runDoctor(cmd, out, cfg, ctx.configPath, shouldColorize(out))
			if failures > 0 {
				return errors.New("doctor found problems; see the report above")
			}
			return nil
		},
	}
}

// runDoctor prints the report and returns the number of required checks that
// failed.
func runDoctor(cmd *cobra.Command, out io.Writer, cfg *config.Config, configPath string, colorize bool) int {
	failures := 0

	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, configPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Transcription", statusInfo, fmt.Sprintf("%s (%s)", cfg.Transcribe.Backend, transcribeModel(cfg)), colorize))
	fmt.Fprintln(out, renderStatusLine("Matter", statusInfo, cfg.Composite.Matter, colorize))
	fmt.Fprintln(out, renderStatusLine("Transcript cache", statusInfo, yesNo(cfg.Cache.Enabled), colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	statuses = append(statuses, deps.RuntimeLibrary(cfg))
	for _, status := range statuses {
		kind, message := dependencyStatus(status)
		if kind == statusError {
			failures++
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Environment", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			failures++
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return failures
}

func dependencyStatus(status deps.Status) (statusKind, string) {
	switch {
	case status.Available && status.Path != "":
		return statusOK, status.Path
	case status.Available:
		return statusOK, status.Detail
	case status.Optional:
		return statusWarn, status.Detail + " (optional)"
	default:
		return statusError, status.Detail
	}
}

func transcribeModel(cfg *config.Config) string {
	if cfg.Transcribe.Backend == config.BackendOpenAI {
		return cfg.Transcribe.OpenAIModel
	}
	return cfg.Transcribe.Model
}
