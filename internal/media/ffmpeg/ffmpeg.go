// Package ffmpeg runs ffmpeg invocations on behalf of the frame and audio
// extractors.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes an external command. Extractors accept a Runner so tests
// can capture arguments instead of spawning ffmpeg.
type Runner func(ctx context.Context, name string, args ...string) error

// Run executes name with args, discarding stdout. A non-zero exit is
// reported with the trimmed stderr output. Context expiry surfaces as the
// context error so callers can tell timeouts from tool failures.
func Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with %d: %s", name, exitErr.ExitCode(), lastLines(stderr.String(), 5))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// lastLines keeps the tail of tool output, which is where ffmpeg reports the cause.
func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
