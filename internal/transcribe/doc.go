// Package transcribe turns spoken audio into word-timed transcripts.
//
// Two backends are available behind the Backend interface:
//   - whisperx: runs WhisperX locally through uvx and loads its JSON output
//   - openai: calls the OpenAI audio transcription API with word timestamps
//
// Service wraps a backend with audio extraction, the SQLite transcript
// cache, and gap-based segment splitting before writing transcript JSON.
package transcribe
