package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working, cache, and log directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Transcribe contains speech-to-text configuration. Backend selects the engine:
// "whisperx" (local, via uvx) or "openai". MaxGap is the word gap in seconds
// above which a segment is split.
type Transcribe struct {
	Backend        string  `toml:"backend"`
	Model          string  `toml:"model"`
	Language       string  `toml:"language"`
	MaxGap         float64 `toml:"max_gap"`
	CUDAEnabled    bool    `toml:"cuda_enabled"`
	VADMethod      string  `toml:"vad_method"`
	HFToken        string  `toml:"hf_token"`
	OpenAIAPIKey   string  `toml:"openai_api_key"`
	OpenAIBaseURL  string  `toml:"openai_base_url"`
	OpenAIModel    string  `toml:"openai_model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Captions contains ASS/SRT caption rendering configuration.
type Captions struct {
	Mode            string  `toml:"mode"`
	Format          string  `toml:"format"`
	Transform       string  `toml:"transform"`
	ResolutionX     int     `toml:"resolution_x"`
	ResolutionY     int     `toml:"resolution_y"`
	FontName        string  `toml:"font_name"`
	FontSize        int     `toml:"font_size"`
	PrimaryColour   string  `toml:"primary_colour"`
	SecondaryColour string  `toml:"secondary_colour"`
	OutlineColour   string  `toml:"outline_colour"`
	BackColour      string  `toml:"back_colour"`
	Bold            bool    `toml:"bold"`
	Italic          bool    `toml:"italic"`
	Outline         float64 `toml:"outline"`
	Shadow          float64 `toml:"shadow"`
	Alignment       int     `toml:"alignment"`
	MarginL         int     `toml:"margin_l"`
	MarginR         int     `toml:"margin_r"`
	MarginV         int     `toml:"margin_v"`
}

// Composite contains background replacement configuration. Matter selects the
// alpha source: "onnx" (Robust Video Matting through ONNX Runtime) or "matte"
// (a precomputed alpha matte video).
type Composite struct {
	Matter              string  `toml:"matter"`
	ModelPath           string  `toml:"model_path"`
	RuntimeLibrary      string  `toml:"onnxruntime_library"`
	DownsampleRatio     float64 `toml:"downsample_ratio"`
	BilateralDiameter   int     `toml:"bilateral_diameter"`
	BilateralSigmaColor float64 `toml:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `toml:"bilateral_sigma_space"`
	Sharpen             bool    `toml:"sharpen"`
	Gamma               float64 `toml:"gamma"`
	AlphaThreshold      int     `toml:"alpha_threshold"`
	VideoCodec          string  `toml:"video_codec"`
	PixelFormat         string  `toml:"pixel_format"`
}

// Mux contains ffmpeg muxing configuration.
type Mux struct {
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
}

// Cache contains configuration for the transcript cache.
type Cache struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`

	// RetentionDays prunes per-run log files older than this; 0 keeps them all.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for gymcut.
//
// Configuration sections by subsystem:
//   - Paths: work, cache, and log directories
//   - Transcribe: WhisperX / OpenAI speech-to-text settings
//   - Captions: caption mode, text transform, and ASS style
//   - Composite: matting model and alpha post-processing
//   - Mux: audio encoding for the final combine step
//   - Cache: SQLite transcript cache
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Transcribe Transcribe `toml:"transcribe"`
	Captions   Captions   `toml:"captions"`
	Composite  Composite  `toml:"composite"`
	Mux        Mux        `toml:"mux"`
	Cache      Cache      `toml:"cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gymcut/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/gymcut/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gymcut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, cache, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", filepath.Dir(c.Cache.Path), err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gymcut")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/gymcut"
	}
	return filepath.Join(home, ".cache", "gymcut")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
