package composite

import (
	"context"
	"fmt"

	"gymcut/internal/media/ffprobe"
)

// Metadata describes the foreground video the output inherits.
type Metadata struct {
	Width  int
	Height int
	FPS    float64
	// Frames is the reported frame count; 0 when unknown.
	Frames int
}

// ProbeMetadata reads dimensions, frame rate, and frame count with ffprobe.
func ProbeMetadata(ctx context.Context, ffprobeBinary, path string) (Metadata, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return Metadata{}, err
	}
	return metadataFromProbe(path, result)
}

func metadataFromProbe(path string, result ffprobe.Result) (Metadata, error) {
	stream, ok := result.VideoStream()
	if !ok {
		return Metadata{}, fmt.Errorf("%s has no video stream", path)
	}
	meta := Metadata{
		Width:  stream.Width,
		Height: stream.Height,
		FPS:    stream.FrameRate(),
		Frames: stream.FrameCount(),
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return Metadata{}, fmt.Errorf("%s: invalid video size %dx%d", path, meta.Width, meta.Height)
	}
	if meta.FPS <= 0 {
		return Metadata{}, fmt.Errorf("%s: unknown frame rate", path)
	}
	return meta, nil
}
