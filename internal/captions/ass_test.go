package captions

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gymcut/internal/config"
	"gymcut/internal/transcript"
)

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{
			{
				ID: 0, Start: 0.0, End: 1.5, Text: "Hello world",
				Words: []transcript.Word{
					{Text: " Hello", Start: 0.1, End: 0.5},
					{Text: " world", Start: 0.6, End: 1.0},
				},
			},
			{
				ID: 1, Start: 2.0, End: 3.0, Text: "Again",
				Words: []transcript.Word{
					{Text: "   ", Start: 2.0, End: 2.1},
					{Text: " Again", Start: 2.2, End: 2.8},
				},
			},
		},
	}
}

func eventTexts(doc Document) []string {
	out := make([]string, len(doc.Events))
	for i, e := range doc.Events {
		out[i] = e.Line()
	}
	return out
}

func TestDefaultStyleLine(t *testing.T) {
	want := "Style: Default,Arial,48,&H00FFFFFF,&H0000FFFF,&H00000000,&H64000000,0,0,0,0,100,100,0,0,1,2,0,2,30,30,60,1"
	if got := DefaultStyle().Line(); got != want {
		t.Fatalf("style line\n got: %s\nwant: %s", got, want)
	}
}

func TestStyleFromDefaultConfigMatchesDefaultStyle(t *testing.T) {
	cfg := config.Default()
	if got, want := StyleFromConfig(cfg.Captions).Line(), DefaultStyle().Line(); got != want {
		t.Fatalf("config style drifted from default\n got: %s\nwant: %s", got, want)
	}
	cfg.Captions.Bold = true
	if !strings.Contains(StyleFromConfig(cfg.Captions).Line(), ",-1,0,0,0,") {
		t.Fatal("expected bold rendered as -1")
	}
}

func TestGenerateWordMode(t *testing.T) {
	doc, err := Generate(sampleTranscript(), DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{
		"Dialogue: 0,0:00:00.10,0:00:00.50,Default,,0,0,0,,Hello",
		"Dialogue: 0,0:00:00.60,0:00:01.00,Default,,0,0,0,,world",
		"Dialogue: 0,0:00:02.20,0:00:02.79,Default,,0,0,0,,Again",
	}
	got := eventTexts(doc)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events\n got: %v\nwant: %v", got, want)
	}
}

func TestDocumentStringLayout(t *testing.T) {
	doc, err := Generate(sampleTranscript(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	text := doc.String()
	for _, fragment := range []string{
		"[Script Info]\nScriptType: v4.00+\nPlayResX: 1024\nPlayResY: 576\nWrapStyle: 2\nScaledBorderAndShadow: yes\n\n[V4+ Styles]\n",
		"\n[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\nDialogue: 0,",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("missing fragment %q in\n%s", fragment, text)
		}
	}
	if strings.HasSuffix(text, "\n") {
		t.Fatal("document must not end with a newline")
	}

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	if err != nil || n != int64(len(text)) || buf.String() != text {
		t.Fatalf("WriteTo wrote %d bytes (%v)", n, err)
	}

	path := filepath.Join(t.TempDir(), "subs.ass")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != text {
		t.Fatalf("file content mismatch (%v)", err)
	}
}

func TestGenerateAccumulateMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeAccumulate
	doc, err := Generate(sampleTranscript(), opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Dialogue: 0,0:00:00.10,0:00:00.60,Default,,0,0,0,,Hello",
		"Dialogue: 0,0:00:00.60,0:00:01.50,Default,,0,0,0,,Hello world",
		"Dialogue: 0,0:00:02.20,0:00:03.00,Default,,0,0,0,,Again",
	}
	got := eventTexts(doc)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events\n got: %v\nwant: %v", got, want)
	}
}

func TestGenerateKaraokeMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeKaraoke
	doc, err := Generate(sampleTranscript(), opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		`Dialogue: 0,0:00:00.00,0:00:01.50,Default,,0,0,0,,{\k10}{\k50}Hello {\k40}world`,
		`Dialogue: 0,0:00:02.00,0:00:03.00,Default,,0,0,0,,{\k20}{\k60}Again`,
	}
	got := eventTexts(doc)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events\n got: %v\nwant: %v", got, want)
	}
}

func TestGenerateTransforms(t *testing.T) {
	tests := []struct {
		transform Transform
		want      string
	}{
		{TransformNone, "Hello"},
		{TransformUpper, "HELLO"},
		{TransformLower, "hello"},
		{TransformTitle, "Hello"},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Transform = tt.transform
		doc, err := Generate(sampleTranscript(), opts)
		if err != nil {
			t.Fatalf("%s: %v", tt.transform, err)
		}
		if doc.Events[0].Text != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.transform, doc.Events[0].Text, tt.want)
		}
	}

	turkish := &transcript.Transcript{Language: "tr", Segments: []transcript.Segment{{
		Words: []transcript.Word{{Text: " istanbul", Start: 0, End: 1}},
	}}}
	opts := DefaultOptions()
	opts.Transform = TransformUpper
	doc, err := Generate(turkish, opts)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Events[0].Text != "İSTANBUL" {
		t.Fatalf("expected Turkish casing, got %q", doc.Events[0].Text)
	}
}

func TestGenerateEscapesOverrides(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{{
		Words: []transcript.Word{{Text: ` {\b1}bold\N`, Start: 0, End: 1}},
	}}}
	doc, err := Generate(tr, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := doc.Events[0].Text
	if got != `\{＼b1\}bold＼N` {
		t.Fatalf("unexpected escaped text %q", got)
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = "scroll"
	if _, err := Generate(sampleTranscript(), opts); err == nil {
		t.Fatal("expected unknown mode error")
	}
	opts = DefaultOptions()
	opts.Transform = "leet"
	if _, err := Generate(sampleTranscript(), opts); err == nil {
		t.Fatal("expected unknown transform error")
	}
	opts = DefaultOptions()
	opts.ResolutionX = 0
	if _, err := Generate(sampleTranscript(), opts); err == nil {
		t.Fatal("expected resolution error")
	}
	if _, err := Generate(nil, DefaultOptions()); err == nil {
		t.Fatal("expected nil transcript error")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Captions.Mode = "karaoke"
	cfg.Captions.ResolutionX = 1920
	cfg.Captions.ResolutionY = 1080
	cfg.Captions.FontSize = 72
	opts := OptionsFromConfig(cfg.Captions)
	if opts.Mode != ModeKaraoke || opts.ResolutionX != 1920 || opts.Style.Fontsize != 72 {
		t.Fatalf("unexpected options %+v", opts)
	}
	doc, err := Generate(sampleTranscript(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Header(), "PlayResX: 1920\nPlayResY: 1080\n") {
		t.Fatal("expected configured resolution in header")
	}
}
