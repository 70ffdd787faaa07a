package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFrames()
	c.normalizeAudio()
	c.normalizeTranscription()
	c.normalizeAgent()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.WorkflowsDir, err = expandPath(strings.TrimSpace(c.Paths.WorkflowsDir)); err != nil {
		return fmt.Errorf("paths.workflows_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFrames() {
	c.Frames.FFmpegBinary = strings.TrimSpace(c.Frames.FFmpegBinary)
	if c.Frames.FFmpegBinary == "" {
		c.Frames.FFmpegBinary = defaultFFmpegBinary
	}
	c.Frames.FFprobeBinary = strings.TrimSpace(c.Frames.FFprobeBinary)
	if c.Frames.FFprobeBinary == "" {
		c.Frames.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Frames.MaxFPS == 0 {
		c.Frames.MaxFPS = defaultMaxFPS
	}
	if c.Frames.TimeoutSeconds == 0 {
		c.Frames.TimeoutSeconds = defaultFrameTimeoutSeconds
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Audio.Format)), ".")
	if c.Audio.Format == "" {
		c.Audio.Format = defaultAudioFormat
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		if value, ok := os.LookupEnv(transcriptionAPIKeyEnv); ok {
			c.Transcription.APIKey = strings.TrimSpace(value)
		}
	}
	c.Transcription.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcription.BaseURL), "/")
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultTranscriptionBaseURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Granularity = strings.ToLower(strings.TrimSpace(c.Transcription.Granularity))
	if c.Transcription.Granularity == "" {
		c.Transcription.Granularity = defaultTranscriptionGranular
	}
	c.Transcription.DefaultLanguage = strings.TrimSpace(c.Transcription.DefaultLanguage)
	if c.Transcription.DefaultLanguage == "" {
		c.Transcription.DefaultLanguage = defaultTranscriptionLanguage
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
	if c.Transcription.MaxAttempts == 0 {
		c.Transcription.MaxAttempts = defaultTranscriptionAttempts
	}
	if c.Transcription.BaseDelayMS == 0 {
		c.Transcription.BaseDelayMS = defaultTranscriptionBaseDelay
	}
}

func (c *Config) normalizeAgent() {
	c.Agent.Mode = strings.ToLower(strings.TrimSpace(c.Agent.Mode))
	if c.Agent.Mode == "" {
		c.Agent.Mode = defaultAgentMode
	}
	c.Agent.SubagentType = strings.TrimSpace(c.Agent.SubagentType)
	if c.Agent.SubagentType == "" {
		c.Agent.SubagentType = defaultAgentSubagentType
	}
	c.Agent.BaseURL = strings.TrimSpace(c.Agent.BaseURL)
	if c.Agent.BaseURL == "" {
		c.Agent.BaseURL = defaultAgentBaseURL
	}
	c.Agent.Model = strings.TrimSpace(c.Agent.Model)
	if c.Agent.Model == "" {
		c.Agent.Model = defaultAgentModel
	}
	c.Agent.Referer = strings.TrimSpace(c.Agent.Referer)
	if c.Agent.Referer == "" {
		c.Agent.Referer = defaultAgentReferer
	}
	c.Agent.Title = strings.TrimSpace(c.Agent.Title)
	if c.Agent.Title == "" {
		c.Agent.Title = defaultAgentTitle
	}
	if c.Agent.TimeoutSeconds <= 0 {
		c.Agent.TimeoutSeconds = defaultAgentTimeoutSeconds
	}
	c.Agent.APIKey = strings.TrimSpace(c.Agent.APIKey)
	if c.Agent.APIKey == "" {
		if value, ok := os.LookupEnv(agentAPIKeyEnv); ok {
			c.Agent.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv(transcriptionAPIKeyEnv); ok {
			c.Agent.APIKey = strings.TrimSpace(value)
		}
	}
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
}
