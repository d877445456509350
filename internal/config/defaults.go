package config

const (
	defaultConfigPath  = "~/.config/vidsub/config.toml"
	projectConfigName  = "vidsub.toml"
	defaultModel       = "medium"
	defaultDevice      = "cpu"
	defaultComputeType = "int8"
	defaultLanguage    = "auto"
	defaultBatchSize   = 4
	defaultCacheDir    = "~/.cache/vidsub"
	defaultFFmpeg      = "ffmpeg"
	defaultUVX         = "uvx"
	defaultNvidiaSMI   = "nvidia-smi"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transcription: Transcription{
			Model:       defaultModel,
			Device:      defaultDevice,
			ComputeType: defaultComputeType,
			Language:    defaultLanguage,
			BatchSize:   defaultBatchSize,
		},
		Paths: Paths{
			CacheDir: defaultCacheDir,
		},
		Tools: Tools{
			FFmpeg:    defaultFFmpeg,
			UVX:       defaultUVX,
			NvidiaSMI: defaultNvidiaSMI,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
