package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cachePath  string
}

// setupCLITestEnv writes a config whose directories all live under a temp dir.
func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "gymcut.toml"),
		cachePath:  filepath.Join(base, "cache", "transcripts.db"),
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
cache_dir = %q
log_dir = %q

[cache]
enabled = true
path = %q
%s`,
		filepath.Join(base, "work"),
		filepath.Join(base, "cache"),
		filepath.Join(base, "logs"),
		env.cachePath,
		extra,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const sampleTranscript = `{
  "text": "Push harder. Last rep!",
  "language": "en",
  "segments": [
    {"id": 0, "start": 0.0, "end": 1.0, "text": "Push harder.", "words": [
      {"word": " Push", "start": 0.0, "end": 0.4, "probability": 0.98},
      {"word": " harder.", "start": 0.5, "end": 1.0, "probability": 0.91}
    ]},
    {"id": 1, "start": 2.0, "end": 3.2, "text": "Last rep!", "words": [
      {"word": " Last", "start": 2.0, "end": 2.5},
      {"word": " rep!", "start": 2.6, "end": 3.2}
    ]}
  ]
}`

func writeSampleTranscript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "transcript.json")
	if err := os.WriteFile(path, []byte(sampleTranscript), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}
