package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscribe()
	c.normalizeCaptions()
	if err := c.normalizeComposite(); err != nil {
		return err
	}
	c.normalizeMux()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Backend = strings.ToLower(strings.TrimSpace(c.Transcribe.Backend))
	if c.Transcribe.Backend == "" {
		c.Transcribe.Backend = defaultTranscribeBackend
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultTranscribeModel
	}
	c.Transcribe.Language = strings.ToLower(strings.TrimSpace(c.Transcribe.Language))
	c.Transcribe.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcribe.VADMethod))
	if c.Transcribe.VADMethod == "" {
		c.Transcribe.VADMethod = defaultVADMethod
	}
	c.Transcribe.HFToken = strings.TrimSpace(c.Transcribe.HFToken)
	if value := envValue("HUGGING_FACE_HUB_TOKEN", "HF_TOKEN"); value != "" {
		c.Transcribe.HFToken = value
	}
	c.Transcribe.OpenAIAPIKey = strings.TrimSpace(c.Transcribe.OpenAIAPIKey)
	if value := envValue("OPENAI_API_KEY"); value != "" {
		c.Transcribe.OpenAIAPIKey = value
	}
	c.Transcribe.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(c.Transcribe.OpenAIBaseURL), "/")
	if c.Transcribe.OpenAIBaseURL == "" {
		c.Transcribe.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	c.Transcribe.OpenAIModel = strings.TrimSpace(c.Transcribe.OpenAIModel)
	if c.Transcribe.OpenAIModel == "" {
		c.Transcribe.OpenAIModel = defaultOpenAIModel
	}
	if c.Transcribe.TimeoutSeconds <= 0 {
		c.Transcribe.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeCaptions() {
	c.Captions.Mode = strings.ToLower(strings.TrimSpace(c.Captions.Mode))
	if c.Captions.Mode == "" {
		c.Captions.Mode = defaultCaptionMode
	}
	c.Captions.Format = strings.ToLower(strings.TrimSpace(c.Captions.Format))
	if c.Captions.Format == "" {
		c.Captions.Format = defaultCaptionFormat
	}
	c.Captions.Transform = strings.ToLower(strings.TrimSpace(c.Captions.Transform))
	if c.Captions.Transform == "" {
		c.Captions.Transform = defaultCaptionTransform
	}
	c.Captions.FontName = strings.TrimSpace(c.Captions.FontName)
	if c.Captions.FontName == "" {
		c.Captions.FontName = defaultFontName
	}
	c.Captions.PrimaryColour = normalizeColour(c.Captions.PrimaryColour, defaultPrimaryColour)
	c.Captions.SecondaryColour = normalizeColour(c.Captions.SecondaryColour, defaultSecondaryColour)
	c.Captions.OutlineColour = normalizeColour(c.Captions.OutlineColour, defaultOutlineColour)
	c.Captions.BackColour = normalizeColour(c.Captions.BackColour, defaultBackColour)
}

func normalizeColour(value, fallback string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

func (c *Config) normalizeComposite() error {
	var err error
	c.Composite.Matter = strings.ToLower(strings.TrimSpace(c.Composite.Matter))
	if c.Composite.Matter == "" {
		c.Composite.Matter = defaultMatter
	}
	if strings.TrimSpace(c.Composite.ModelPath) == "" {
		c.Composite.ModelPath = defaultModelPath
	}
	if c.Composite.ModelPath, err = expandPath(c.Composite.ModelPath); err != nil {
		return fmt.Errorf("composite.model_path: %w", err)
	}
	c.Composite.RuntimeLibrary = strings.TrimSpace(c.Composite.RuntimeLibrary)
	if c.Composite.RuntimeLibrary == "" {
		c.Composite.RuntimeLibrary = envValue("ORT_LIBRARY_PATH")
	}
	if c.Composite.RuntimeLibrary != "" && strings.ContainsRune(c.Composite.RuntimeLibrary, filepath.Separator) {
		if c.Composite.RuntimeLibrary, err = expandPath(c.Composite.RuntimeLibrary); err != nil {
			return fmt.Errorf("composite.onnxruntime_library: %w", err)
		}
	}
	c.Composite.VideoCodec = strings.TrimSpace(c.Composite.VideoCodec)
	if c.Composite.VideoCodec == "" {
		c.Composite.VideoCodec = defaultVideoCodec
	}
	c.Composite.PixelFormat = strings.TrimSpace(c.Composite.PixelFormat)
	if c.Composite.PixelFormat == "" {
		c.Composite.PixelFormat = defaultPixelFormat
	}
	return nil
}

func (c *Config) normalizeMux() {
	c.Mux.AudioCodec = strings.TrimSpace(c.Mux.AudioCodec)
	if c.Mux.AudioCodec == "" {
		c.Mux.AudioCodec = defaultAudioCodec
	}
	c.Mux.AudioBitrate = strings.TrimSpace(c.Mux.AudioBitrate)
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, defaultCacheFile)
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if c.Cache.MaxAgeDays < 0 {
		c.Cache.MaxAgeDays = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envValue returns the first non-empty environment variable among keys.
// Environment values take precedence over file values for secrets.
func envValue(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
