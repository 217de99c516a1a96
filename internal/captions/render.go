package captions

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gymcut/internal/transcript"
)

// Output formats.
const (
	FormatASS = "ass"
	FormatSRT = "srt"
)

// Rendered is a generated caption document ready to write.
type Rendered interface {
	io.WriterTo
	WriteFile(path string) error
}

// Build renders t in format using opts. SRT output ignores style and
// resolution and derives its granularity from the mode.
func Build(t *transcript.Transcript, format string, opts Options) (Rendered, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatASS, "":
		doc, err := Generate(t, opts)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case FormatSRT:
		doc, err := GenerateSRT(t, GranularityForMode(opts.Mode), opts.Transform)
		if err != nil {
			return nil, err
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown caption format %q", format)
	}
}

// FormatForPath infers the output format from a file extension, falling back
// to fallback.
func FormatForPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return fallback
	}
}
