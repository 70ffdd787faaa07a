package preflight

import (
	"context"

	"vidinterp/internal/config"
	"vidinterp/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.WorkDir != "" {
		results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	}
	results = append(results, CheckWorkflowsFromConfig(cfg))
	results = append(results, CheckHistoryFromConfig(ctx, cfg))

	if cfg.Transcription.Enabled {
		results = append(results, CheckTranscription(ctx, cfg.Whisper()))
	}
	if cfg.Agent.Mode == config.AgentModeLLM {
		results = append(results, CheckLLM(ctx, "Agent LLM", cfg.AgentLLM()))
	}
	return results
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
	if status.Available {
		result.Detail = status.Path
		if status.Version != "" {
			result.Detail += " (" + status.Version + ")"
		}
	}
	return result
}
