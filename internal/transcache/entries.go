package transcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymcut/internal/fileutil"
	"gymcut/internal/transcript"
)

// timestampLayout is fixed width so stored values compare correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Key identifies one transcription of one piece of audio.
type Key struct {
	AudioHash string
	Backend   string
	Model     string
	Language  string
}

// String renders the key as stored in the cache_key column. An empty
// language is stored as "auto".
func (k Key) String() string {
	lang := k.Language
	if lang == "" {
		lang = "auto"
	}
	return strings.Join([]string{k.AudioHash, k.Backend, k.Model, lang}, ":")
}

// KeyFor hashes the audio file and combines the digest with the settings
// that influence the transcription result.
func KeyFor(audioPath, backend, model, language string) (Key, error) {
	hash, err := fileutil.HashFile(audioPath)
	if err != nil {
		return Key{}, fmt.Errorf("hash audio: %w", err)
	}
	return Key{AudioHash: hash, Backend: backend, Model: model, Language: language}, nil
}

// Entry summarizes a cached transcript.
type Entry struct {
	Key        string
	Backend    string
	Model      string
	Language   string
	SourcePath string
	Segments   int
	Words      int
	Duration   float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Get returns the cached transcript for key. The boolean reports a hit.
func (s *Store) Get(ctx context.Context, key Key) (*transcript.Transcript, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var payload string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT payload FROM transcripts WHERE cache_key = ?`, key.String(),
		).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached transcript: %w", err)
	}
	var t transcript.Transcript
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, false, fmt.Errorf("decode cached transcript: %w", err)
	}
	return &t, true, nil
}

// Put stores t under key, replacing any previous entry. sourcePath is kept
// for display only.
func (s *Store) Put(ctx context.Context, key Key, sourcePath string, t *transcript.Transcript) error {
	if s == nil {
		return nil
	}
	if t == nil {
		return errors.New("cache transcript: nil transcript")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	now := time.Now().UTC().Format(timestampLayout)
	lang := key.Language
	if lang == "" {
		lang = "auto"
	}
	_, err = s.execWithRetry(ctx, `
		INSERT INTO transcripts (
			cache_key, audio_hash, backend, model, language, source_path,
			segments, words, duration, payload, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			source_path = excluded.source_path,
			segments = excluded.segments,
			words = excluded.words,
			duration = excluded.duration,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key.String(), key.AudioHash, key.Backend, key.Model, lang, sourcePath,
		len(t.Segments), len(transcript.Words(t)), transcript.Duration(t), string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	return nil
}

// List returns all entries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, backend, model, language, source_path, segments, words, duration, created_at, updated_at
		FROM transcripts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                Entry
			created, updated string
		)
		if err := rows.Scan(&e.Key, &e.Backend, &e.Model, &e.Language, &e.SourcePath,
			&e.Segments, &e.Words, &e.Duration, &created, &updated); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTimestamp(created)
		e.UpdatedAt = parseTimestamp(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Purge deletes entries not updated within olderThan. A zero duration
// removes every entry.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	if s == nil {
		return 0, nil
	}
	var (
		res sql.Result
		err error
	)
	if olderThan <= 0 {
		res, err = s.execWithRetry(ctx, `DELETE FROM transcripts`)
	} else {
		cutoff := time.Now().Add(-olderThan).UTC().Format(timestampLayout)
		res, err = s.execWithRetry(ctx, `DELETE FROM transcripts WHERE updated_at < ?`, cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return int(removed), nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
