package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// CheckMediaTools reports ffmpeg and ffprobe availability together with the
// version line each binary prints for -version.
func CheckMediaTools(ctx context.Context, ffmpegCommand, ffprobeCommand string) []Status {
	results := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: ffmpegCommand, Description: "Required for frame and audio extraction"},
		{Name: "FFprobe", Command: ffprobeCommand, Description: "Required for stream inspection"},
	})
	for i := range results {
		if !results[i].Available {
			continue
		}
		version, err := Version(ctx, results[i].Path)
		if err != nil {
			results[i].Available = false
			results[i].Detail = err.Error()
			continue
		}
		results[i].Version = version
	}
	return results
}

// Version runs "<command> -version" and returns the version token from the
// first output line, e.g. "6.1.1" for "ffmpeg version 6.1.1 Copyright ...".
func Version(ctx context.Context, command string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	output, err := exec.CommandContext(runCtx, command, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version failed: %w", command, err)
	}
	return parseVersion(string(output))
}

func parseVersion(output string) (string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	if line == "" {
		return "", fmt.Errorf("empty version output")
	}
	return "", fmt.Errorf("unrecognized version output %q", line)
}
