package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateSRTWord(t *testing.T) {
	doc, err := GenerateSRT(sampleTranscript(), GranularityWord, TransformUpper)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,100 --> 00:00:00,500\nHELLO\n\n" +
		"2\n00:00:00,600 --> 00:00:01,000\nWORLD\n\n" +
		"3\n00:00:02,200 --> 00:00:02,800\nAGAIN\n"
	if got := doc.String(); got != want {
		t.Fatalf("srt\n got: %q\nwant: %q", got, want)
	}
}

func TestGenerateSRTSegment(t *testing.T) {
	doc, err := GenerateSRT(sampleTranscript(), GranularityForMode(ModeAccumulate), TransformNone)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Cues) != 2 || doc.Cues[0].Text != "Hello world" || doc.Cues[1].Start != 2.0 {
		t.Fatalf("unexpected cues %+v", doc.Cues)
	}
}

func TestBuildPicksFormat(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{FormatASS, FormatSRT} {
		rendered, err := Build(sampleTranscript(), format, DefaultOptions())
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		path := filepath.Join(dir, "out."+format)
		if err := rendered.WriteFile(path); err != nil {
			t.Fatal(err)
		}
		data, _ := os.ReadFile(path)
		isASS := strings.HasPrefix(string(data), "[Script Info]")
		if isASS != (format == FormatASS) {
			t.Fatalf("%s: unexpected content %q", format, string(data)[:20])
		}
	}
	if _, err := Build(sampleTranscript(), "vtt", DefaultOptions()); err == nil {
		t.Fatal("expected unknown format error")
	}
	if FormatForPath("x.SRT", FormatASS) != FormatSRT || FormatForPath("x.txt", FormatASS) != FormatASS {
		t.Fatal("unexpected format inference")
	}
}

func TestValidateSRT(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	good := write("good.srt", "1\n00:00:01,000 --> 00:00:02,000\nHi\n\n2\n00:00:58,000 --> 00:01:00,000\nBye\n")
	if issues := ValidateSRT(good, 62); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}

	tests := []struct {
		name   string
		path   string
		video  float64
		prefix string
	}{
		{name: "missing", path: filepath.Join(dir, "none.srt"), prefix: "read_error"},
		{name: "empty", path: write("empty.srt", "  \n"), prefix: "empty_subtitle_file"},
		{name: "no timestamps", path: write("bad.srt", "1\nnot a time\nHi\n"), prefix: "no_valid_timestamps"},
		{name: "duration", path: good, video: 120, prefix: "duration_mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidateSRT(tt.path, tt.video)
			if len(issues) == 0 || !strings.HasPrefix(issues[0], tt.prefix) {
				t.Fatalf("expected %s issue, got %v", tt.prefix, issues)
			}
		})
	}
}
