package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"vidinterp/internal/config"
	"vidinterp/internal/logging"
	"vidinterp/internal/services"
	"vidinterp/internal/services/llm"
)

// Task is one agent invocation.
type Task struct {
	// SubagentType names the kind of agent requested by the host.
	SubagentType string
	// Description is a short human-readable label.
	Description string
	Prompt      string
	Batch       Batch
}

// Agent analyzes a batch and returns a JSON response object.
type Agent interface {
	Analyze(ctx context.Context, task Task) ([]byte, error)
}

// PlaceholderAgent returns an empty but well-formed response for every batch.
type PlaceholderAgent struct{}

// Analyze implements Agent.
func (PlaceholderAgent) Analyze(_ context.Context, task Task) ([]byte, error) {
	return json.Marshal(placeholderResponse(task.Batch))
}

// completer is the slice of llm.Client the agent needs.
type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSONWithImages(ctx context.Context, systemPrompt, userPrompt string, imagePaths []string) (string, error)
}

// LLMAgent sends batch prompts to a chat completion API in JSON mode.
type LLMAgent struct {
	client       completer
	attachFrames bool
}

// NewLLMAgent wraps client. When attachFrames is set the batch frames are sent
// as images with the prompt.
func NewLLMAgent(client *llm.Client, attachFrames bool) *LLMAgent {
	return &LLMAgent{client: client, attachFrames: attachFrames}
}

// Analyze implements Agent.
func (a *LLMAgent) Analyze(ctx context.Context, task Task) ([]byte, error) {
	var (
		content string
		err     error
	)
	if a.attachFrames {
		content, err = a.client.CompleteJSONWithImages(ctx, SystemPrompt, task.Prompt, task.Batch.Frames)
	} else {
		content, err = a.client.CompleteJSON(ctx, SystemPrompt, task.Prompt)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "llm agent", task.Batch.ID, err)
	}
	var payload map[string]any
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "llm agent", task.Batch.ID+": response is not JSON", err)
	}
	return json.Marshal(payload)
}

// NewFromConfig returns the agent selected by agent.mode.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Agent, error) {
	switch cfg.Agent.Mode {
	case config.AgentModePlaceholder, "":
		return PlaceholderAgent{}, nil
	case config.AgentModeLLM:
		llmCfg := cfg.AgentLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
		logging.NewComponentLogger(logger, "agents").Debug("llm agent configured",
			logging.String("model", client.Model()),
			logging.Bool("attach_frames", cfg.Agent.AttachFrames),
		)
		return NewLLMAgent(client, cfg.Agent.AttachFrames), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageName, "select agent", fmt.Sprintf("unknown agent mode %q", cfg.Agent.Mode), nil)
	}
}
