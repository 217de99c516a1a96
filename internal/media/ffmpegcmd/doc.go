// Package ffmpegcmd builds and runs ffmpeg command lines.
//
// Argument lists are assembled with github.com/u2takey/ffmpeg-go so stream
// selection and option ordering stay consistent across the audio extract,
// mux, and frame pipe callers. Execution goes through a Runner so tests can
// capture the arguments instead of spawning ffmpeg.
package ffmpegcmd
