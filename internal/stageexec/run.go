package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidinterp/internal/logging"
	"vidinterp/internal/runs"
	"vidinterp/internal/services"
)

// Func executes the body of a stage. The logger carries run and stage fields.
type Func func(ctx context.Context, logger *slog.Logger) error

// Options controls a single stage execution.
type Options struct {
	Logger    *slog.Logger
	StageName string
	// Attrs are added to the stage_start record.
	Attrs   []logging.Attr
	Execute Func
}

// Run executes a stage between stage_start and stage_complete/stage_failure
// records. The stage error is returned unchanged.
func Run(ctx context.Context, opts Options) error {
	if opts.Execute == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	started := time.Now()
	startAttrs := append([]logging.Attr{logging.String(logging.FieldEventType, "stage_start")}, opts.Attrs...)
	stageLogger.Info("stage started", logging.Args(startAttrs...)...)

	if err := opts.Execute(stageCtx, stageLogger); err != nil {
		return handleFailure(stageLogger, err, time.Since(started))
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func handleFailure(logger *slog.Logger, stageErr error, elapsed time.Duration) error {
	if errors.Is(stageErr, context.Canceled) {
		logger.Debug("stage interrupted", logging.Duration("stage_duration", elapsed))
		return stageErr
	}
	status := services.FailureStatus(stageErr)
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("resolved_status", string(status)),
		logging.String(logging.FieldErrorHint, failureHint(status)),
		logging.String("error_message", strings.TrimSpace(stageErr.Error())),
		logging.Duration("stage_duration", elapsed),
		logging.Error(stageErr),
	)
	return stageErr
}

func failureHint(status runs.Status) string {
	if status == runs.StatusInvalid {
		return "fix the input or configuration and rerun"
	}
	return "check the external tool or API and rerun"
}
