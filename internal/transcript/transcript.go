package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gymcut/internal/fileutil"
)

// DefaultMaxGap is the pause, in seconds, above which SplitSegments starts a
// new segment.
const DefaultMaxGap = 0.2

// Word is a single timed word. Text keeps Whisper's leading space verbatim.
type Word struct {
	Text        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Probability *float64 `json:"probability,omitempty"`
}

// Segment is a run of words the recognizer grouped together.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the top-level transcript document.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Load reads and decodes a transcript JSON file.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return &t, nil
}

// Save writes t as JSON indented by two spaces. The file is replaced
// atomically.
func Save(path string, t *Transcript) error {
	if t == nil {
		return errors.New("save transcript: nil transcript")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// SplitSegments breaks each segment wherever the pause between consecutive
// words is strictly greater than maxGap. Produced segments are numbered by
// output position; segments without words are passed through unchanged,
// keeping their original ID.
func SplitSegments(segments []Segment, maxGap float64) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Words) == 0 {
			out = append(out, seg)
			continue
		}
		group := []Word{seg.Words[0]}
		for i := 1; i < len(seg.Words); i++ {
			word := seg.Words[i]
			if word.Start-seg.Words[i-1].End > maxGap {
				out = append(out, newSegment(len(out), group))
				group = nil
			}
			group = append(group, word)
		}
		out = append(out, newSegment(len(out), group))
	}
	return out
}

func newSegment(id int, words []Word) Segment {
	var text strings.Builder
	for _, w := range words {
		text.WriteString(w.Text)
	}
	return Segment{
		ID:    id,
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Text:  strings.TrimSpace(text.String()),
		Words: words,
	}
}

// Validate checks word timing: starts are non-negative, ends do not precede
// starts, and starts never decrease within a segment.
func Validate(t *Transcript) error {
	if t == nil {
		return errors.New("nil transcript")
	}
	for si, seg := range t.Segments {
		prevStart := -1.0
		for wi, w := range seg.Words {
			switch {
			case w.Start < 0:
				return fmt.Errorf("segment %d word %d (%q): negative start %.3f", si, wi, strings.TrimSpace(w.Text), w.Start)
			case w.End < w.Start:
				return fmt.Errorf("segment %d word %d (%q): end %.3f before start %.3f", si, wi, strings.TrimSpace(w.Text), w.End, w.Start)
			case w.Start < prevStart:
				return fmt.Errorf("segment %d word %d (%q): start %.3f before previous word start %.3f", si, wi, strings.TrimSpace(w.Text), w.Start, prevStart)
			}
			prevStart = w.Start
		}
	}
	return nil
}

// Words returns every word in segment order.
func Words(t *Transcript) []Word {
	if t == nil {
		return nil
	}
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// Duration returns the latest segment or word end time.
func Duration(t *Transcript) float64 {
	if t == nil {
		return 0
	}
	var end float64
	for _, seg := range t.Segments {
		end = max(end, seg.End)
		for _, w := range seg.Words {
			end = max(end, w.End)
		}
	}
	return end
}

// RebuildText sets t.Text to the trimmed concatenation of segment texts.
func RebuildText(t *Transcript) {
	if t == nil {
		return
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	t.Text = strings.Join(parts, " ")
}
