// Package captions renders word-timed transcripts as styled captions.
//
// ASS output is the primary format: a [Script Info] block sized to the
// target resolution, a single Default style, and Dialogue events in one of
// three modes:
//   - word: one event per word, shown for the word's own span
//   - accumulate: the segment text grows word by word
//   - karaoke: one event per segment with \k timing tags
//
// SRT output is available for players that cannot render ASS, together with
// a validator for SRT files produced elsewhere.
package captions
