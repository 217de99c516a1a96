// Package transcache stores raw transcription results in SQLite so repeated
// runs over the same audio skip the expensive speech-to-text step.
//
// Entries are keyed by the audio content hash plus the backend, model, and
// language that produced them. A nil *Store is a valid disabled cache: every
// lookup misses and every write is dropped.
package transcache
