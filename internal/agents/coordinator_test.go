package agents_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"vidinterp/internal/agents"
	"vidinterp/internal/services"
)

// scriptedAgent records tasks and answers through respond.
type scriptedAgent struct {
	tasks   []agents.Task
	respond func(task agents.Task) ([]byte, error)
}

func (a *scriptedAgent) Analyze(_ context.Context, task agents.Task) ([]byte, error) {
	a.tasks = append(a.tasks, task)
	return a.respond(task)
}

func newCoordinator(t *testing.T, agent agents.Agent) *agents.Coordinator {
	t.Helper()
	c, err := agents.NewCoordinator(agent, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func TestDispatchWithPlaceholderAgent(t *testing.T) {
	coordinator := newCoordinator(t, agents.PlaceholderAgent{})
	responses, err := coordinator.Dispatch(context.Background(), frameNames(10), threeSegments(), shapesSettings(), "reconstruct shapes", 3, 0.5)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	for i, resp := range responses {
		if resp.BatchID != agents.BatchID(i) {
			t.Fatalf("response %d has id %s", i, resp.BatchID)
		}
		if resp.Summary != "Analysis of "+resp.BatchID {
			t.Fatalf("unexpected placeholder summary %q", resp.Summary)
		}
		if resp.Note == "" || len(resp.VisualAnalysis) != 0 || len(resp.Correlations) != 0 {
			t.Fatalf("unexpected placeholder body %+v", resp)
		}
	}
	if responses[0].FramesAnalyzed != 4 || responses[1].TimeRange.Start != 8 || responses[2].TimeRange.End != 20 {
		t.Fatalf("unexpected batch metadata %+v", responses)
	}
}

func TestDispatchSendsPromptsInOrder(t *testing.T) {
	agent := &scriptedAgent{respond: func(task agents.Task) ([]byte, error) {
		return agents.PlaceholderAgent{}.Analyze(context.Background(), task)
	}}
	coordinator := newCoordinator(t, agent).WithSubagentType("vision-analyst")
	if _, err := coordinator.Dispatch(context.Background(), frameNames(4), nil, shapesSettings(), "reconstruct shapes", 10, 1); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(agent.tasks) != 4 {
		t.Fatalf("expected one task per frame when workers exceed frames, got %d", len(agent.tasks))
	}
	for i, task := range agent.tasks {
		if task.Batch.Index != i || task.SubagentType != "vision-analyst" {
			t.Fatalf("task %d out of order or untyped: %+v", i, task)
		}
		if !strings.Contains(task.Prompt, task.Batch.ID) || !strings.Contains(task.Prompt, agents.NoAudioText) {
			t.Fatalf("task %d prompt missing batch context", i)
		}
	}
}

func TestDispatchAbortsOnFirstFailure(t *testing.T) {
	agent := &scriptedAgent{respond: func(task agents.Task) ([]byte, error) {
		if task.Batch.Index == 1 {
			return nil, errors.New("agent unavailable")
		}
		return agents.PlaceholderAgent{}.Analyze(context.Background(), task)
	}}
	_, err := newCoordinator(t, agent).Dispatch(context.Background(), frameNames(9), nil, shapesSettings(), "reconstruct shapes", 3, 1)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(agent.tasks) != 2 {
		t.Fatalf("expected dispatch to stop after the failing batch, got %d calls", len(agent.tasks))
	}
}

func TestDispatchRejectsContractViolations(t *testing.T) {
	agent := &scriptedAgent{respond: func(agents.Task) ([]byte, error) {
		return []byte(`{"batch_id":"batch_0"}`), nil
	}}
	_, err := newCoordinator(t, agent).Dispatch(context.Background(), frameNames(3), nil, shapesSettings(), "reconstruct shapes", 1, 1)
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "missing required field") {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestDispatchKeepsDispatchedBatchID(t *testing.T) {
	agent := &scriptedAgent{respond: func(task agents.Task) ([]byte, error) {
		return json.Marshal(agents.Response{
			BatchID:        "batch_99",
			TimeRange:      agents.TimeRange{Start: task.Batch.StartTime, End: task.Batch.EndTime},
			FramesAnalyzed: len(task.Batch.Frames),
			VisualAnalysis: []agents.Observation{},
			Correlations:   []agents.Correlation{},
			Summary:        "ok",
		})
	}}
	responses, err := newCoordinator(t, agent).Dispatch(context.Background(), frameNames(2), nil, shapesSettings(), "reconstruct shapes", 1, 1)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if responses[0].BatchID != "batch_0" {
		t.Fatalf("expected dispatched batch id, got %s", responses[0].BatchID)
	}
}

func TestDispatchValidatesInputs(t *testing.T) {
	agent := &scriptedAgent{respond: func(agents.Task) ([]byte, error) { return nil, nil }}
	coordinator := newCoordinator(t, agent)
	ctx := context.Background()
	cases := map[string]func() error{
		"empty frames": func() error {
			_, err := coordinator.Dispatch(ctx, nil, nil, shapesSettings(), "task", 1, 1)
			return err
		},
		"zero workers": func() error {
			_, err := coordinator.Dispatch(ctx, frameNames(2), nil, shapesSettings(), "task", 0, 1)
			return err
		},
		"zero fps": func() error {
			_, err := coordinator.Dispatch(ctx, frameNames(2), nil, shapesSettings(), "task", 1, 0)
			return err
		},
		"short task": func() error {
			_, err := coordinator.Dispatch(ctx, frameNames(2), nil, shapesSettings(), "ab", 1, 1)
			return err
		},
	}
	for name, run := range cases {
		if err := run(); !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if len(agent.tasks) != 0 {
		t.Fatalf("agent must not run for invalid input, got %d calls", len(agent.tasks))
	}
}

func TestNewCoordinatorRequiresAgent(t *testing.T) {
	if _, err := agents.NewCoordinator(nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
