package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestStreamFrameRate(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   float64
	}{
		{name: "avg rational", stream: Stream{AvgFrameRate: "30000/1001"}, want: 30000.0 / 1001.0},
		{name: "falls back to r_frame_rate", stream: Stream{AvgFrameRate: "0/0", RFrameRate: "25/1"}, want: 25},
		{name: "plain number", stream: Stream{AvgFrameRate: "24"}, want: 24},
		{name: "unknown", stream: Stream{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stream.FrameRate(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("FrameRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamFrameCount(t *testing.T) {
	if got := (Stream{NBFrames: "120"}).FrameCount(); got != 120 {
		t.Fatalf("expected nb_frames to win, got %d", got)
	}
	if got := (Stream{Duration: "4.0", AvgFrameRate: "30/1"}).FrameCount(); got != 120 {
		t.Fatalf("expected duration*fps estimate, got %d", got)
	}
	if got := (Stream{Duration: "bad"}).FrameCount(); got != 0 {
		t.Fatalf("expected unknown frame count, got %d", got)
	}
}

func TestParseVideoStreamAndLanguages(t *testing.T) {
	payload := []byte(`{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 240},
    {"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30/1", "nb_frames": "90"},
    {"index": 2, "codec_type": "audio", "codec_name": "aac", "tags": {"language": "eng"}}
  ],
  "format": {"duration": "3.0"}
}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	video, ok := result.VideoStream()
	if !ok || video.CodecName != "h264" || video.Width != 1920 {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	if video.FrameCount() != 90 {
		t.Fatalf("unexpected frame count %d", video.FrameCount())
	}
	langs := result.AudioLanguages()
	if len(langs) != 1 || langs[0] != "eng" {
		t.Fatalf("unexpected audio languages %v", langs)
	}
	if len(result.RawJSON()) != len(payload) {
		t.Fatal("expected raw payload to be retained")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
