package preflight

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"vidinterp/internal/config"
	"vidinterp/internal/runs"
	"vidinterp/internal/workflows"
)

// CheckWorkflowsFromConfig loads the workflow catalog and reports definitions
// that failed to load.
func CheckWorkflowsFromConfig(cfg *config.Config) Result {
	const name = "Workflows"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	catalog, err := workflows.NewCatalog(cfg.Paths.WorkflowsDir, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	invalid := catalog.Invalid()
	if len(invalid) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d loaded", len(catalog.List()))}
	}
	broken := make([]string, 0, len(invalid))
	for slug := range invalid {
		broken = append(broken, slug)
	}
	slices.Sort(broken)
	return Result{Name: name, Detail: fmt.Sprintf("invalid definitions: %s", strings.Join(broken, ", "))}
}

// CheckHistoryFromConfig opens the run history database when history is enabled.
func CheckHistoryFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Run history"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.History.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	store, err := runs.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	if _, err := store.List(ctx, 1); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: store.Path()}
}
