package ffmpegcmd

import (
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Audio extraction parameters expected by Whisper models.
const (
	SampleRate    = 16000
	AudioChannels = 1
	AudioCodecPCM = "pcm_s16le"
)

// compile renders stream into an argument list with the global flags first,
// so the output path stays the final argument.
func compile(stream *ffmpeg.Stream, overwrite bool) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if overwrite {
		args = append(args, "-y")
	}
	return append(args, stream.GetArgs()...)
}

// ExtractAudioArgs decodes the first audio stream of source into a mono
// 16 kHz PCM WAV at dest.
func ExtractAudioArgs(source, dest string) []string {
	out := ffmpeg.Input(source).Output(dest, ffmpeg.KwArgs{
		"map": "0:a:0",
		"vn":  "",
		"sn":  "",
		"dn":  "",
		"ac":  AudioChannels,
		"ar":  SampleRate,
		"c:a": AudioCodecPCM,
	})
	return compile(out, true)
}

// BurnSubtitlesArgs renders an ASS file onto the video of input, copying audio.
func BurnSubtitlesArgs(input, assPath, output string) []string {
	out := ffmpeg.Input(input).Output(output, ffmpeg.KwArgs{
		"vf":  "ass=" + EscapeFilterPath(assPath),
		"c:a": "copy",
	})
	return compile(out, true)
}

// CombineArgs takes the video stream of video and the audio stream of audio.
// Video is copied, audio encoded, and the output ends with the shorter input.
func CombineArgs(video, audio, output, audioCodec, audioBitrate string) []string {
	kw := ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      audioCodec,
		"shortest": "",
	}
	if strings.TrimSpace(audioBitrate) != "" {
		kw["b:a"] = audioBitrate
	}
	streams := []*ffmpeg.Stream{
		ffmpeg.Input(video).Video(),
		ffmpeg.Input(audio).Audio(),
	}
	return compile(ffmpeg.Output(streams, output, kw), true)
}

// Raw pixel formats used for frame pipes.
const (
	PixFmtRGB24 = "rgb24"
	PixFmtGray  = "gray"
)

// DecodeRawArgs decodes input to raw frames of pixFmt on stdout. When width
// and height are positive the frames are scaled to that size.
func DecodeRawArgs(input, pixFmt string, width, height int) []string {
	kw := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": pixFmt,
		"an":      "",
		"sn":      "",
	}
	if width > 0 && height > 0 {
		kw["vf"] = fmt.Sprintf("scale=%d:%d", width, height)
	}
	return compile(ffmpeg.Input(input).Output("pipe:1", kw), false)
}

// EncodeRawArgs reads rgb24 frames of width x height from stdin and encodes
// them to output at fps with the given codec and pixel format.
func EncodeRawArgs(output string, width, height int, fps float64, codec, pixelFormat string) []string {
	in := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": PixFmtRGB24,
		"s":       fmt.Sprintf("%dx%d", width, height),
		"r":       formatRate(fps),
	})
	kw := ffmpeg.KwArgs{
		"c:v": codec,
		"an":  "",
	}
	if strings.TrimSpace(pixelFormat) != "" {
		kw["pix_fmt"] = pixelFormat
	}
	return compile(in.Output(output, kw), true)
}

// EscapeFilterPath escapes a path for use as a filter argument value.
// Backslashes, colons, and quotes are significant to the filtergraph parser.
func EscapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\\\`,
		`:`, `\\:`,
		`'`, `\\\'`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(path)
}

func formatRate(fps float64) string {
	if fps <= 0 {
		fps = 30
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", fps), "0"), ".")
}
