// Package language normalizes the language hints accepted by the transcription
// backends.
//
// A short table covers the spellings people actually type ("english", "fre",
// "ger"); anything else is resolved through golang.org/x/text/language so any
// valid BCP 47 tag or ISO 639 code maps to its ISO 639-1 form.
package language
