package config

const (
	defaultWorkDir             = "~/.local/share/gymcut/work"
	defaultLogDir              = "~/.local/share/gymcut/logs"
	defaultTranscribeBackend   = BackendWhisperX
	defaultTranscribeModel     = "small"
	defaultTranscribeLanguage  = "en"
	defaultMaxGap              = 0.2
	defaultVADMethod           = "silero"
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultOpenAIModel         = "whisper-1"
	defaultTranscribeTimeout   = 1800
	defaultCaptionMode         = "word"
	defaultCaptionFormat       = "ass"
	defaultCaptionTransform    = "none"
	defaultResolutionX         = 1024
	defaultResolutionY         = 576
	defaultFontName            = "Arial"
	defaultFontSize            = 48
	defaultPrimaryColour       = "&H00FFFFFF"
	defaultSecondaryColour     = "&H0000FFFF"
	defaultOutlineColour       = "&H00000000"
	defaultBackColour          = "&H64000000"
	defaultMatter              = MatterONNX
	defaultModelPath           = "~/.local/share/gymcut/models/rvm_mobilenetv3_fp32.onnx"
	defaultDownsampleRatio     = 0.8
	defaultBilateralDiameter   = 9
	defaultBilateralSigmaColor = 75
	defaultBilateralSigmaSpace = 75
	defaultGamma               = 0.8
	defaultAlphaThreshold      = 200
	defaultVideoCodec          = "mpeg4"
	defaultPixelFormat         = "yuv420p"
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultCacheFile           = "transcripts.db"
	defaultCacheMaxAgeDays     = 90
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Transcribe: Transcribe{
			Backend:        defaultTranscribeBackend,
			Model:          defaultTranscribeModel,
			Language:       defaultTranscribeLanguage,
			MaxGap:         defaultMaxGap,
			VADMethod:      defaultVADMethod,
			OpenAIBaseURL:  defaultOpenAIBaseURL,
			OpenAIModel:    defaultOpenAIModel,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Captions: Captions{
			Mode:            defaultCaptionMode,
			Format:          defaultCaptionFormat,
			Transform:       defaultCaptionTransform,
			ResolutionX:     defaultResolutionX,
			ResolutionY:     defaultResolutionY,
			FontName:        defaultFontName,
			FontSize:        defaultFontSize,
			PrimaryColour:   defaultPrimaryColour,
			SecondaryColour: defaultSecondaryColour,
			OutlineColour:   defaultOutlineColour,
			BackColour:      defaultBackColour,
			Outline:         2,
			Shadow:          0,
			Alignment:       2,
			MarginL:         30,
			MarginR:         30,
			MarginV:         60,
		},
		Composite: Composite{
			Matter:              defaultMatter,
			ModelPath:           defaultModelPath,
			DownsampleRatio:     defaultDownsampleRatio,
			BilateralDiameter:   defaultBilateralDiameter,
			BilateralSigmaColor: defaultBilateralSigmaColor,
			BilateralSigmaSpace: defaultBilateralSigmaSpace,
			Sharpen:             true,
			Gamma:               defaultGamma,
			AlphaThreshold:      defaultAlphaThreshold,
			VideoCodec:          defaultVideoCodec,
			PixelFormat:         defaultPixelFormat,
		},
		Mux: Mux{
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Cache: Cache{
			Enabled:    true,
			MaxAgeDays: defaultCacheMaxAgeDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
