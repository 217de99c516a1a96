package captions

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"gymcut/internal/config"
	"gymcut/internal/fileutil"
	"gymcut/internal/transcript"
)

// Mode selects how words become events.
type Mode string

// Caption modes.
const (
	ModeWord       Mode = "word"
	ModeAccumulate Mode = "accumulate"
	ModeKaraoke    Mode = "karaoke"
)

// Transform selects a casing applied to caption text.
type Transform string

// Text transforms.
const (
	TransformNone  Transform = "none"
	TransformUpper Transform = "upper"
	TransformLower Transform = "lower"
	TransformTitle Transform = "title"
)

// Default PlayRes when no resolution is configured.
const (
	DefaultResolutionX = 1024
	DefaultResolutionY = 576
)

const eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// Options controls caption generation.
type Options struct {
	Mode        Mode
	Transform   Transform
	ResolutionX int
	ResolutionY int
	Style       Style
}

// DefaultOptions returns word mode at 1024x576 with DefaultStyle.
func DefaultOptions() Options {
	return Options{
		Mode:        ModeWord,
		Transform:   TransformNone,
		ResolutionX: DefaultResolutionX,
		ResolutionY: DefaultResolutionY,
		Style:       DefaultStyle(),
	}
}

// OptionsFromConfig builds Options from the captions config section.
func OptionsFromConfig(c config.Captions) Options {
	opts := DefaultOptions()
	if c.Mode != "" {
		opts.Mode = Mode(c.Mode)
	}
	if c.Transform != "" {
		opts.Transform = Transform(c.Transform)
	}
	if c.ResolutionX > 0 {
		opts.ResolutionX = c.ResolutionX
	}
	if c.ResolutionY > 0 {
		opts.ResolutionY = c.ResolutionY
	}
	opts.Style = StyleFromConfig(c)
	return opts
}

// Event is one Dialogue line.
type Event struct {
	Layer int
	Start float64
	End   float64
	Style string
	Text  string
}

// Line renders the event as a Dialogue line.
func (e Event) Line() string {
	return fmt.Sprintf("Dialogue: %d,%s,%s,%s,,0,0,0,,%s",
		e.Layer, FormatASSTime(e.Start), FormatASSTime(e.End), e.Style, e.Text)
}

// Document is a rendered ASS script.
type Document struct {
	Options Options
	Events  []Event
}

// Generate builds an ASS document from t.
func Generate(t *transcript.Transcript, opts Options) (Document, error) {
	if t == nil {
		return Document{}, fmt.Errorf("generate captions: nil transcript")
	}
	if opts.ResolutionX <= 0 || opts.ResolutionY <= 0 {
		return Document{}, fmt.Errorf("generate captions: invalid resolution %dx%d", opts.ResolutionX, opts.ResolutionY)
	}
	if opts.Style.Name == "" {
		opts.Style.Name = "Default"
	}
	recase, err := newRecase(opts.Transform, t.Language)
	if err != nil {
		return Document{}, fmt.Errorf("generate captions: %w", err)
	}

	doc := Document{Options: opts}
	var events []Event
	switch opts.Mode {
	case ModeWord, "":
		events = wordEvents(t, recase)
	case ModeAccumulate:
		events = accumulateEvents(t, recase)
	case ModeKaraoke:
		events = karaokeEvents(t, recase)
	default:
		return Document{}, fmt.Errorf("generate captions: unknown mode %q", opts.Mode)
	}
	for i := range events {
		events[i].Style = opts.Style.Name
	}
	doc.Events = events
	return doc, nil
}

// Header renders [Script Info], [V4+ Styles] and the [Events] format line.
func (d Document) Header() string {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", d.Options.ResolutionX)
	fmt.Fprintf(&b, "PlayResY: %d\n", d.Options.ResolutionY)
	b.WriteString("WrapStyle: 2\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString(styleFormat + "\n")
	b.WriteString(d.Options.Style.Line() + "\n")
	b.WriteString("\n[Events]\n")
	b.WriteString(eventFormat + "\n")
	return b.String()
}

// String renders the header followed by events joined by newlines, without
// a trailing newline.
func (d Document) String() string {
	lines := make([]string, len(d.Events))
	for i, e := range d.Events {
		lines[i] = e.Line()
	}
	return d.Header() + strings.Join(lines, "\n")
}

// WriteTo implements io.WriterTo.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// WriteFile writes the document to path atomically.
func (d Document) WriteFile(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(d.String()), 0o644); err != nil {
		return fmt.Errorf("write ass: %w", err)
	}
	return nil
}

func wordEvents(t *transcript.Transcript, recase func(string) string) []Event {
	var events []Event
	for _, seg := range t.Segments {
		for _, w := range seg.Words {
			text := renderWord(w.Text, recase)
			if text == "" {
				continue
			}
			events = append(events, Event{Start: w.Start, End: w.End, Text: text})
		}
	}
	return events
}

// accumulateEvents shows the segment text built up to each word, from the
// word's start until the next word starts. The last word holds until the
// segment ends.
func accumulateEvents(t *transcript.Transcript, recase func(string) string) []Event {
	var events []Event
	for _, seg := range t.Segments {
		words := visibleWords(seg.Words, recase)
		var shown []string
		for i, w := range words {
			shown = append(shown, w.text)
			end := max(seg.End, w.end)
			if i+1 < len(words) {
				end = max(words[i+1].start, w.start)
			}
			events = append(events, Event{Start: w.start, End: end, Text: strings.Join(shown, " ")})
		}
	}
	return events
}

// karaokeEvents emits one event per segment. Each word carries a \k tag
// lasting until the next word starts, so the secondary colour sweeps in time.
func karaokeEvents(t *transcript.Transcript, recase func(string) string) []Event {
	var events []Event
	for _, seg := range t.Segments {
		words := visibleWords(seg.Words, recase)
		if len(words) == 0 {
			continue
		}
		start := min(seg.Start, words[0].start)
		end := max(seg.End, words[len(words)-1].end)

		var b strings.Builder
		if lead := centiseconds(words[0].start - start); lead > 0 {
			fmt.Fprintf(&b, "{\\k%d}", lead)
		}
		for i, w := range words {
			next := w.end
			if i+1 < len(words) {
				next = words[i+1].start
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "{\\k%d}%s", centiseconds(next-w.start), w.text)
		}
		events = append(events, Event{Start: start, End: end, Text: b.String()})
	}
	return events
}

type visibleWord struct {
	text       string
	start, end float64
}

func visibleWords(words []transcript.Word, recase func(string) string) []visibleWord {
	out := make([]visibleWord, 0, len(words))
	for _, w := range words {
		text := renderWord(w.Text, recase)
		if text == "" {
			continue
		}
		out = append(out, visibleWord{text: text, start: w.Start, end: w.End})
	}
	return out
}

func renderWord(raw string, recase func(string) string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	return Escape(recase(text))
}

// Escape neutralizes override-block syntax in caption text. Braces are
// backslash escaped; a literal backslash is replaced by U+FF3C so it cannot
// form \N or \h sequences.
func Escape(text string) string {
	text = strings.ReplaceAll(text, `\`, "＼")
	text = strings.ReplaceAll(text, "{", `\{`)
	text = strings.ReplaceAll(text, "}", `\}`)
	text = strings.ReplaceAll(text, "\n", " ")
	return text
}

// newRecase returns the casing function for transform. Casing follows the
// transcript language so locale rules (Turkish dotted i) apply.
func newRecase(transform Transform, lang string) (func(string) string, error) {
	tag := xlanguage.Und
	if parsed, err := xlanguage.Parse(lang); err == nil {
		tag = parsed
	}
	var c cases.Caser
	switch transform {
	case TransformNone, "":
		return func(s string) string { return s }, nil
	case TransformUpper:
		c = cases.Upper(tag)
	case TransformLower:
		c = cases.Lower(tag)
	case TransformTitle:
		c = cases.Title(tag)
	default:
		return nil, fmt.Errorf("unknown transform %q", transform)
	}
	return c.String, nil
}
