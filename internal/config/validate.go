package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Transcription backends.
const (
	BackendWhisperX = "whisperx"
	BackendOpenAI   = "openai"
)

// Alpha matte sources.
const (
	MatterONNX  = "onnx"
	MatterMatte = "matte"
)

var (
	captionModes      = []string{"word", "accumulate", "karaoke"}
	captionFormats    = []string{"ass", "srt"}
	captionTransforms = []string{"none", "upper", "lower", "title"}
	vadMethods        = []string{"silero", "pyannote"}
	assColourPattern  = regexp.MustCompile(`^&H[0-9A-F]{8}$`)
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateComposite(); err != nil {
		return err
	}
	if c.Cache.MaxAgeDays < 0 {
		return errors.New("cache.max_age_days must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	switch c.Transcribe.Backend {
	case BackendWhisperX:
	case BackendOpenAI:
		if c.Transcribe.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/gymcut/config.toml"
			}
			return fmt.Errorf("transcribe.openai_api_key is required for the openai backend. Set OPENAI_API_KEY or edit %s", defaultPath)
		}
	default:
		return fmt.Errorf("transcribe.backend must be one of %s, %s (got %q)", BackendWhisperX, BackendOpenAI, c.Transcribe.Backend)
	}
	if c.Transcribe.MaxGap < 0 {
		return errors.New("transcribe.max_gap must be >= 0")
	}
	if !contains(vadMethods, c.Transcribe.VADMethod) {
		return fmt.Errorf("transcribe.vad_method must be one of %s", strings.Join(vadMethods, ", "))
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if !contains(captionModes, c.Captions.Mode) {
		return fmt.Errorf("captions.mode must be one of %s", strings.Join(captionModes, ", "))
	}
	if !contains(captionFormats, c.Captions.Format) {
		return fmt.Errorf("captions.format must be one of %s", strings.Join(captionFormats, ", "))
	}
	if !contains(captionTransforms, c.Captions.Transform) {
		return fmt.Errorf("captions.transform must be one of %s", strings.Join(captionTransforms, ", "))
	}
	if err := ensurePositiveMap(map[string]int{
		"captions.resolution_x": c.Captions.ResolutionX,
		"captions.resolution_y": c.Captions.ResolutionY,
		"captions.font_size":    c.Captions.FontSize,
	}); err != nil {
		return err
	}
	if c.Captions.Alignment < 1 || c.Captions.Alignment > 9 {
		return errors.New("captions.alignment must be between 1 and 9 (numpad layout)")
	}
	for key, value := range map[string]string{
		"captions.primary_colour":   c.Captions.PrimaryColour,
		"captions.secondary_colour": c.Captions.SecondaryColour,
		"captions.outline_colour":   c.Captions.OutlineColour,
		"captions.back_colour":      c.Captions.BackColour,
	} {
		if !assColourPattern.MatchString(value) {
			return fmt.Errorf("%s must use the ASS &HAABBGGRR form (got %q)", key, value)
		}
	}
	return nil
}

func (c *Config) validateComposite() error {
	switch c.Composite.Matter {
	case MatterONNX, MatterMatte:
	default:
		return fmt.Errorf("composite.matter must be one of %s, %s (got %q)", MatterONNX, MatterMatte, c.Composite.Matter)
	}
	if c.Composite.DownsampleRatio <= 0 || c.Composite.DownsampleRatio > 1 {
		return errors.New("composite.downsample_ratio must be in (0, 1]")
	}
	if c.Composite.BilateralDiameter < 0 {
		return errors.New("composite.bilateral_diameter must be >= 0 (0 disables smoothing)")
	}
	if c.Composite.BilateralDiameter > 0 && (c.Composite.BilateralSigmaColor <= 0 || c.Composite.BilateralSigmaSpace <= 0) {
		return errors.New("composite.bilateral_sigma_color and bilateral_sigma_space must be positive")
	}
	if c.Composite.Gamma <= 0 {
		return errors.New("composite.gamma must be positive")
	}
	if c.Composite.AlphaThreshold < 0 || c.Composite.AlphaThreshold > 255 {
		return errors.New("composite.alpha_threshold must be between 0 and 255")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func contains(values []string, candidate string) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
