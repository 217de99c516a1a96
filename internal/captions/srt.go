package captions

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gymcut/internal/fileutil"
	"gymcut/internal/transcript"
)

// Granularity selects what one SRT cue covers.
type Granularity string

// SRT cue granularities.
const (
	GranularityWord    Granularity = "word"
	GranularitySegment Granularity = "segment"
)

// durationToleranceSeconds is how far the last cue may end from the video end
// before ValidateSRT reports a mismatch.
const durationToleranceSeconds = 8.0

// Cue is one numbered SRT entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// SRTDocument is a rendered SRT file.
type SRTDocument struct {
	Cues []Cue
}

// GranularityForMode maps a caption mode onto SRT: word mode stays per word,
// the segment-level modes become one cue per segment.
func GranularityForMode(mode Mode) Granularity {
	if mode == ModeWord || mode == "" {
		return GranularityWord
	}
	return GranularitySegment
}

// GenerateSRT builds SRT cues from t. SRT has no override blocks, so text is
// only trimmed and recased.
func GenerateSRT(t *transcript.Transcript, granularity Granularity, transform Transform) (SRTDocument, error) {
	if t == nil {
		return SRTDocument{}, fmt.Errorf("generate srt: nil transcript")
	}
	recase, err := newRecase(transform, t.Language)
	if err != nil {
		return SRTDocument{}, fmt.Errorf("generate srt: %w", err)
	}

	var doc SRTDocument
	add := func(start, end float64, text string) {
		doc.Cues = append(doc.Cues, Cue{Index: len(doc.Cues) + 1, Start: start, End: max(start, end), Text: text})
	}
	for _, seg := range t.Segments {
		switch granularity {
		case GranularityWord, "":
			for _, w := range seg.Words {
				if text := strings.TrimSpace(w.Text); text != "" {
					add(w.Start, w.End, recase(text))
				}
			}
		case GranularitySegment:
			if text := strings.TrimSpace(seg.Text); text != "" {
				add(seg.Start, seg.End, recase(text))
			}
		default:
			return SRTDocument{}, fmt.Errorf("generate srt: unknown granularity %q", granularity)
		}
	}
	return doc, nil
}

// String renders the cues separated by blank lines.
func (d SRTDocument) String() string {
	var b strings.Builder
	for i, cue := range d.Cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", cue.Index, FormatSRTTime(cue.Start), FormatSRTTime(cue.End), cue.Text)
	}
	return b.String()
}

// WriteTo implements io.WriterTo.
func (d SRTDocument) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// WriteFile writes the document to path atomically.
func (d SRTDocument) WriteFile(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(d.String()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ValidateSRT checks an SRT file for format issues. An empty result means
// the file passed. When videoSeconds is positive the last cue must end
// within durationToleranceSeconds of it.
func ValidateSRT(path string, videoSeconds float64) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" || countCues(content) == 0 {
		return []string{"empty_subtitle_file"}
	}

	var issues []string
	first, last, found := cueBounds(content)
	if !found {
		issues = append(issues, "no_valid_timestamps")
		return issues
	}
	if first > last {
		issues = append(issues, fmt.Sprintf("inverted_bounds: first=%.3fs last=%.3fs", first, last))
	}
	if videoSeconds > 0 && last > 0 {
		if delta := videoSeconds - last; math.Abs(delta) > durationToleranceSeconds {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", delta))
		}
	}
	return issues
}

func countCues(content string) int {
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

func cueBounds(content string) (first, last float64, found bool) {
	first = math.Inf(1)
	for _, line := range strings.Split(content, "\n") {
		startText, endText, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		start, errStart := parseSRTTimestamp(startText)
		end, errEnd := parseSRTTimestamp(endText)
		if errStart != nil || errEnd != nil {
			continue
		}
		found = true
		first = min(first, start)
		last = max(last, end)
	}
	if !found {
		return 0, 0, false
	}
	return first, last, true
}

// parseSRTTimestamp parses HH:MM:SS,mmm, also accepting a period separator.
func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
