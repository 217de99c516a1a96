package deps

import "gymcut/internal/config"

// UVXCommand is the launcher used to run WhisperX without a global install.
const UVXCommand = "uvx"

// Requirements lists the binaries the configured pipeline needs. uvx is only
// required when WhisperX is the active transcription backend.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Decodes, encodes, and muxes video"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Reads stream metadata"},
		{
			Name:        "uvx",
			Command:     UVXCommand,
			Description: "Runs WhisperX for local transcription",
			Optional:    cfg.Transcribe.Backend != config.BackendWhisperX,
		},
	}
	return reqs
}

// RuntimeLibrary reports the ONNX Runtime shared library used by the onnx
// matter. It is optional when compositing from a precomputed matte.
func RuntimeLibrary(cfg *config.Config) Status {
	return CheckLibrary(
		"ONNX Runtime",
		cfg.Composite.RuntimeLibrary,
		"Runs the background matting model",
		cfg.Composite.Matter != config.MatterONNX,
	)
}
