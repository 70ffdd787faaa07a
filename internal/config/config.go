package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
	WorkflowsDir string `toml:"workflows_dir"`
}

// Frames contains configuration for frame sampling.
type Frames struct {
	FFmpegBinary   string  `toml:"ffmpeg_binary"`
	FFprobeBinary  string  `toml:"ffprobe_binary"`
	MaxFPS         float64 `toml:"max_fps"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Audio contains configuration for audio-track extraction.
type Audio struct {
	Format string `toml:"format"`
}

// Transcription contains configuration for the Whisper transcription service.
type Transcription struct {
	Enabled         bool   `toml:"enabled"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	Granularity     string `toml:"granularity"`
	DefaultLanguage string `toml:"default_language"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxAttempts     int    `toml:"max_attempts"`
	BaseDelayMS     int    `toml:"base_delay_ms"`
}

// Agent contains configuration for the per-batch analysis agent.
type Agent struct {
	// Mode selects the agent implementation: "placeholder" or "llm".
	Mode           string `toml:"mode"`
	SubagentType   string `toml:"subagent_type"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// AttachFrames sends the batch frames as images alongside the prompt.
	AttachFrames bool `toml:"attach_frames"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidinterp.
//
// Configuration sections by subsystem:
//   - Paths: working, state, log and workflow directories
//   - Frames: ffmpeg/ffprobe binaries and sampling limits
//   - Audio: extracted audio format
//   - Transcription: Whisper API connection and retry settings
//   - Agent: batch analysis agent selection and LLM connection
//   - History: run history database
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Frames        Frames        `toml:"frames"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Agent         Agent         `toml:"agent"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidinterp.toml")
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

// EnsureDirectories creates the state and log directories. The work directory
// is created lazily by the stages that write into it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// LogFilePath returns the JSON log file location, or "" when file logging is disabled.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "vidinterp.log")
}

// FFmpegBinary returns the ffmpeg executable used for frame and audio extraction.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Frames.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Frames.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// FrameTimeout bounds a single ffmpeg invocation.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Frames.TimeoutSeconds) * time.Second
}

// AudioExtension returns the file suffix for extracted audio, including the dot.
func (c *Config) AudioExtension() string {
	return "." + c.Audio.Format
}

// FramesDir returns the directory receiving sampled frames for a video:
// "<stem>_frames" next to the video, or under paths.work_dir when set.
func (c *Config) FramesDir(videoPath string) string {
	return filepath.Join(c.outputBase(videoPath), videoStem(videoPath)+"_frames")
}

// AudioPath returns the extracted audio location for a video:
// "<stem>_audio.<format>" next to the video, or under paths.work_dir when set.
func (c *Config) AudioPath(videoPath string) string {
	return filepath.Join(c.outputBase(videoPath), videoStem(videoPath)+"_audio"+c.AudioExtension())
}

// TranscriptPath returns where the transcription JSON for a video is written.
func (c *Config) TranscriptPath(videoPath string) string {
	return filepath.Join(c.outputBase(videoPath), videoStem(videoPath)+"_transcript.json")
}

func (c *Config) outputBase(videoPath string) string {
	if dir := strings.TrimSpace(c.Paths.WorkDir); dir != "" {
		return dir
	}
	return filepath.Dir(videoPath)
}

func videoStem(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WhisperConfig contains the settings used by the transcription client.
type WhisperConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Granularity string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// Whisper returns the transcription client settings.
func (c *Config) Whisper() WhisperConfig {
	return WhisperConfig{
		APIKey:      strings.TrimSpace(c.Transcription.APIKey),
		BaseURL:     strings.TrimSpace(c.Transcription.BaseURL),
		Model:       strings.TrimSpace(c.Transcription.Model),
		Granularity: c.Transcription.Granularity,
		Timeout:     time.Duration(c.Transcription.TimeoutSeconds) * time.Second,
		MaxAttempts: c.Transcription.MaxAttempts,
		BaseDelay:   time.Duration(c.Transcription.BaseDelayMS) * time.Millisecond,
	}
}

// LLMConfig contains the chat completion settings used by the LLM agent.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// AgentLLM returns the LLM connection settings for the analysis agent.
func (c *Config) AgentLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Agent.APIKey),
		BaseURL:        strings.TrimSpace(c.Agent.BaseURL),
		Model:          strings.TrimSpace(c.Agent.Model),
		Referer:        strings.TrimSpace(c.Agent.Referer),
		Title:          strings.TrimSpace(c.Agent.Title),
		TimeoutSeconds: c.Agent.TimeoutSeconds,
	}
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
