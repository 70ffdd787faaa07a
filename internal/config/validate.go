package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"vidinterp/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrames(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAgent(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFrames() error {
	if err := ensurePositiveMap(map[string]int{
		"frames.timeout_seconds": c.Frames.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Frames.MaxFPS <= 0 || c.Frames.MaxFPS > defaultMaxFPS {
		return fmt.Errorf("frames.max_fps must be between 0 and %g", defaultMaxFPS)
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Format {
	case "wav", "mp3":
		return nil
	default:
		return fmt.Errorf("audio.format must be wav or mp3, got %q", c.Audio.Format)
	}
}

func (c *Config) validateTranscription() error {
	if err := ensurePositiveMap(map[string]int{
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
		"transcription.max_attempts":    c.Transcription.MaxAttempts,
		"transcription.base_delay_ms":   c.Transcription.BaseDelayMS,
	}); err != nil {
		return err
	}
	switch c.Transcription.Granularity {
	case "word", "segment":
	default:
		return fmt.Errorf("transcription.granularity must be word or segment, got %q", c.Transcription.Granularity)
	}
	if !language.IsSupported(c.Transcription.DefaultLanguage) {
		return fmt.Errorf("transcription.default_language %q is not supported (use one of: %s)",
			c.Transcription.DefaultLanguage, strings.Join(language.Codes(), ", "))
	}
	if _, err := url.ParseRequestURI(c.Transcription.BaseURL); err != nil {
		return fmt.Errorf("transcription.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateAgent() error {
	switch c.Agent.Mode {
	case AgentModePlaceholder:
		return nil
	case AgentModeLLM:
	default:
		return fmt.Errorf("agent.mode must be %q or %q, got %q", AgentModePlaceholder, AgentModeLLM, c.Agent.Mode)
	}
	if c.Agent.APIKey == "" {
		return fmt.Errorf("agent.api_key must be set when agent.mode is %q (or set %s)", AgentModeLLM, agentAPIKeyEnv)
	}
	if _, err := url.ParseRequestURI(c.Agent.BaseURL); err != nil {
		return fmt.Errorf("agent.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
