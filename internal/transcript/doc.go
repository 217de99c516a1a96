// Package transcript models word-timestamped speech transcripts in the
// Whisper JSON layout and provides the helpers every later stage relies on:
// loading and atomically saving transcript files, splitting segments at
// pauses between words, validating word timing, and flattening words for
// caption generation.
package transcript
