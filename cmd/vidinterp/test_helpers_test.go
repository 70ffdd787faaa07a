package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidinterp/internal/testsupport"
)

const ffprobeStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffprobe version 7.0 Copyright"
  exit 0
fi
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","avg_frame_rate":"30/1","r_frame_rate":"30/1"}],
 "format":{"duration":"12.0","format_name":"mov,mp4"}}
JSON
`

// ffmpegStub writes six frames into the directory of its last argument.
const ffmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.0 Copyright"
  exit 0
fi
for arg; do last="$arg"; done
dir=$(dirname "$last")
for i in 0000 0001 0002 0003 0004 0005; do
  printf 'png' > "$dir/frame_$i.png"
done
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
	stateDir   string
	video      string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENAI_API_KEY", "")

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for name, script := range map[string]string{"ffmpeg": ffmpegStub, "ffprobe": ffprobeStub} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(homeDir, ".config", "vidinterp", "config.toml"),
		workDir:    filepath.Join(base, "work"),
		stateDir:   filepath.Join(base, "state"),
		video:      testsupport.WriteVideo(t, filepath.Join(base, "videos"), "lesson.mp4"),
	}
	if err := os.MkdirAll(env.workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
state_dir = %q
log_dir = ""

[frames]
ffmpeg_binary = %q
ffprobe_binary = %q

[transcription]
enabled = false

[agent]
mode = "placeholder"

[history]
enabled = true
`, env.workDir, env.stateDir, filepath.Join(binDir, "ffmpeg"), filepath.Join(binDir, "ffprobe"))
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
