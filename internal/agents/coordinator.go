package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vidinterp/internal/logging"
	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
	"vidinterp/internal/workflows"
)

const (
	stageName = "agents"

	// DefaultSubagentType is the agent kind requested when none is configured.
	DefaultSubagentType = "general-purpose"
)

// Coordinator builds batches and dispatches them to an Agent sequentially.
type Coordinator struct {
	agent        Agent
	prompter     *Prompter
	subagentType string
	logger       *slog.Logger
}

// NewCoordinator returns a coordinator that sends every batch to agent.
func NewCoordinator(agent Agent, logger *slog.Logger) (*Coordinator, error) {
	if agent == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init coordinator", "agent is required", nil)
	}
	prompter, err := NewPrompter()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init coordinator", "load prompt templates", err)
	}
	return &Coordinator{
		agent:        agent,
		prompter:     prompter,
		subagentType: DefaultSubagentType,
		logger:       logging.NewComponentLogger(logger, "agents"),
	}, nil
}

// WithSubagentType sets the agent kind recorded on every task.
func (c *Coordinator) WithSubagentType(kind string) *Coordinator {
	if kind != "" {
		c.subagentType = kind
	}
	return c
}

// Prompter exposes the coordinator's prompt renderer.
func (c *Coordinator) Prompter() *Prompter {
	return c.prompter
}

// Dispatch partitions frames into at most workers batches, renders a prompt
// for each and invokes the agent one batch at a time. Responses are returned
// in batch order. The first failure aborts the dispatch.
func (c *Coordinator) Dispatch(
	ctx context.Context,
	frames []string,
	transcript *whisper.Transcript,
	settings workflows.Settings,
	task string,
	workers int,
	fps float64,
) ([]Response, error) {
	if len(frames) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "dispatch", "frames cannot be empty", nil)
	}
	if workers < 1 {
		return nil, services.Wrap(services.ErrValidation, stageName, "dispatch", fmt.Sprintf("workers must be >= 1, got %d", workers), nil)
	}
	if fps <= 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "dispatch", fmt.Sprintf("fps must be > 0, got %g", fps), nil)
	}

	batches, err := BuildBatches(frames, transcript, workers, fps)
	if err != nil {
		return nil, err
	}
	// Render every prompt before the first agent call so template problems
	// surface without spending agent work.
	tasks := make([]Task, 0, len(batches))
	for _, batch := range batches {
		prompt, err := c.prompter.Generate(batch, settings, task)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, Task{
			SubagentType: c.subagentType,
			Description:  fmt.Sprintf("Analyze video frames %s", batch.ID),
			Prompt:       prompt,
			Batch:        batch,
		})
	}

	c.logger.Info("dispatching batches",
		logging.Int("batches", len(batches)),
		logging.Int("frames", len(frames)),
		logging.Int("requested_workers", workers),
	)

	responses := make([]Response, 0, len(tasks))
	for _, t := range tasks {
		resp, err := c.dispatchOne(ctx, t)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (c *Coordinator) dispatchOne(ctx context.Context, task Task) (Response, error) {
	batch := task.Batch
	batchCtx := services.WithBatchID(ctx, batch.ID)
	logger := logging.WithContext(batchCtx, c.logger)
	if err := ctx.Err(); err != nil {
		return Response{}, services.Wrap(services.ErrTransient, stageName, "dispatch", batch.ID+": cancelled", err)
	}

	started := time.Now()
	logger.Debug("batch dispatched",
		logging.Int("frames", len(batch.Frames)),
		logging.Int("segments", len(batch.Segments)),
		logging.Float64("start_time", batch.StartTime),
		logging.Float64("end_time", batch.EndTime),
	)
	raw, err := c.agent.Analyze(batchCtx, task)
	if err != nil {
		return Response{}, services.Wrap(services.ErrExternalTool, stageName, "dispatch", batch.ID, err)
	}
	resp, err := DecodeResponse(raw)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", batch.ID, err)
	}
	if resp.BatchID != batch.ID {
		logging.WarnWithContext(logger, "agent response batch id mismatch",
			"agent_batch_mismatch",
			logging.String("reported_batch_id", resp.BatchID),
			logging.String(logging.FieldErrorHint, "the agent echoed the wrong batch id; the dispatched id is kept"),
			logging.String(logging.FieldImpact, "none"),
		)
		resp.BatchID = batch.ID
	}
	logger.Info("batch analyzed",
		logging.Int("observations", len(resp.VisualAnalysis)),
		logging.Int("correlations", len(resp.Correlations)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}
