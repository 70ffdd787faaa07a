package validate_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidinterp/internal/services"
	"vidinterp/internal/validate"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func expectField(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s validation error", field)
	}
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T: %v", err, err)
	}
	if verr.Field != field {
		t.Fatalf("expected field %q, got %q (%v)", field, verr.Field, err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected error to match ErrValidation: %v", err)
	}
}

func TestVideoPath(t *testing.T) {
	valid := writeFile(t, "clip.MP4", []byte("data"))
	if err := validate.VideoPath(valid); err != nil {
		t.Fatalf("expected valid video, got %v", err)
	}

	cases := map[string]string{
		"empty path":    "",
		"missing file":  filepath.Join(t.TempDir(), "missing.mp4"),
		"directory":     t.TempDir(),
		"bad extension": writeFile(t, "notes.txt", []byte("data")),
		"zero bytes":    writeFile(t, "empty.mkv", nil),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			expectField(t, validate.VideoPath(path), "video")
		})
	}
}

func TestVideoPathAcceptsEveryExtension(t *testing.T) {
	for _, ext := range validate.VideoExtensions() {
		path := writeFile(t, "clip"+ext, []byte("x"))
		if err := validate.VideoPath(path); err != nil {
			t.Fatalf("extension %s rejected: %v", ext, err)
		}
	}
}

func TestTaskDescription(t *testing.T) {
	tests := []struct {
		name  string
		task  string
		valid bool
	}{
		{"normal", "Analyze geometric shapes", true},
		{"minimum", "abc", true},
		{"padded minimum", "  abc  ", true},
		{"empty", "", false},
		{"whitespace", "   \t", false},
		{"too short", " ab ", false},
		{"max length", strings.Repeat("a", validate.MaxTaskLength), true},
		{"too long", strings.Repeat("a", validate.MaxTaskLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.TaskDescription(tt.task)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid {
				expectField(t, err, "task")
			}
		})
	}
}

func TestFPS(t *testing.T) {
	for _, fps := range []float64{0.1, 0.5, 2, 10} {
		if err := validate.FPS(fps); err != nil {
			t.Fatalf("fps %g rejected: %v", fps, err)
		}
	}
	for _, fps := range []float64{0, -1, 0.05, 10.5, 30} {
		expectField(t, validate.FPS(fps), "fps")
	}
}

func TestLanguage(t *testing.T) {
	for _, code := range []string{"pt", "en", "es", "fr", "de", "it", "ja", "ko", "zh", "ru", "ar", "hi"} {
		if err := validate.Language(code); err != nil {
			t.Fatalf("language %q rejected: %v", code, err)
		}
	}
	for _, code := range []string{"", " ", "por", "p", "PT", "p1", "nl", "xx"} {
		t.Run(code, func(t *testing.T) {
			expectField(t, validate.Language(code), "language")
		})
	}
}

func TestWorkflowSettings(t *testing.T) {
	cfg, err := validate.WorkflowSettings(map[string]any{
		"fps":      0.5,
		"agents":   5,
		"focus":    "shapes",
		"language": "pt",
	})
	if err != nil {
		t.Fatalf("WorkflowSettings: %v", err)
	}
	if cfg.FPS != 0.5 || cfg.Agents != 5 || cfg.Focus != "shapes" || cfg.Language != "pt" {
		t.Fatalf("unexpected settings: %+v", cfg)
	}

	intFPS, err := validate.WorkflowSettings(map[string]any{"fps": 2, "agents": 10, "focus": "ui_elements"})
	if err != nil {
		t.Fatalf("integer fps rejected: %v", err)
	}
	if intFPS.FPS != 2 || intFPS.Language != "" {
		t.Fatalf("unexpected settings: %+v", intFPS)
	}
}

func TestWorkflowSettingsRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"nil", nil, "config"},
		{"missing fps", map[string]any{"agents": 5, "focus": "shapes"}, "config"},
		{"missing agents", map[string]any{"fps": 1.0, "focus": "shapes"}, "config"},
		{"missing focus", map[string]any{"fps": 1.0, "agents": 5}, "config"},
		{"fps string", map[string]any{"fps": "fast", "agents": 5, "focus": "shapes"}, "fps"},
		{"fps too high", map[string]any{"fps": 11.0, "agents": 5, "focus": "shapes"}, "fps"},
		{"fps too low", map[string]any{"fps": 0.01, "agents": 5, "focus": "shapes"}, "fps"},
		{"agents float", map[string]any{"fps": 1.0, "agents": 5.0, "focus": "shapes"}, "agents"},
		{"agents zero", map[string]any{"fps": 1.0, "agents": 0, "focus": "shapes"}, "agents"},
		{"agents too many", map[string]any{"fps": 1.0, "agents": 21, "focus": "shapes"}, "agents"},
		{"focus number", map[string]any{"fps": 1.0, "agents": 5, "focus": 3}, "focus"},
		{"focus unknown", map[string]any{"fps": 1.0, "agents": 5, "focus": "colors"}, "focus"},
		{"language number", map[string]any{"fps": 1.0, "agents": 5, "focus": "code", "language": 7}, "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.WorkflowSettings(tt.raw)
			expectField(t, err, tt.field)
		})
	}
}
