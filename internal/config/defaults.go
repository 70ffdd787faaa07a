package config

const (
	defaultConfigPath             = "~/.config/vidinterp/config.toml"
	defaultStateDir               = "~/.local/share/vidinterp"
	defaultLogDir                 = "~/.local/share/vidinterp/logs"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultMaxFPS                 = 60.0
	defaultFrameTimeoutSeconds    = 1800
	defaultAudioFormat            = "wav"
	defaultTranscriptionBaseURL   = "https://api.openai.com/v1"
	defaultTranscriptionModel     = "whisper-1"
	defaultTranscriptionGranular  = "segment"
	defaultTranscriptionLanguage  = "pt"
	defaultTranscriptionTimeout   = 60
	defaultTranscriptionAttempts  = 3
	defaultTranscriptionBaseDelay = 1000
	defaultAgentMode              = "placeholder"
	defaultAgentSubagentType      = "general-purpose"
	defaultAgentBaseURL           = "https://openrouter.ai/api/v1"
	defaultAgentModel             = "google/gemini-3-flash-preview"
	defaultAgentReferer           = "https://github.com/vidinterp/vidinterp"
	defaultAgentTitle             = "vidinterp batch analysis"
	defaultAgentTimeoutSeconds    = 120
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultHistoryEnabled         = true
	defaultTranscriptionEnabled   = true
	transcriptionAPIKeyEnv        = "OPENAI_API_KEY"
	agentAPIKeyEnv                = "VIDINTERP_AGENT_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Frames: Frames{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			MaxFPS:         defaultMaxFPS,
			TimeoutSeconds: defaultFrameTimeoutSeconds,
		},
		Audio: Audio{
			Format: defaultAudioFormat,
		},
		Transcription: Transcription{
			Enabled:         defaultTranscriptionEnabled,
			BaseURL:         defaultTranscriptionBaseURL,
			Model:           defaultTranscriptionModel,
			Granularity:     defaultTranscriptionGranular,
			DefaultLanguage: defaultTranscriptionLanguage,
			TimeoutSeconds:  defaultTranscriptionTimeout,
			MaxAttempts:     defaultTranscriptionAttempts,
			BaseDelayMS:     defaultTranscriptionBaseDelay,
		},
		Agent: Agent{
			Mode:           defaultAgentMode,
			SubagentType:   defaultAgentSubagentType,
			BaseURL:        defaultAgentBaseURL,
			Model:          defaultAgentModel,
			Referer:        defaultAgentReferer,
			Title:          defaultAgentTitle,
			TimeoutSeconds: defaultAgentTimeoutSeconds,
			AttachFrames:   true,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// Agent modes accepted by agent.mode.
const (
	AgentModePlaceholder = "placeholder"
	AgentModeLLM         = "llm"
)
