package workflows_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidinterp/internal/services"
	"vidinterp/internal/validate"
	"vidinterp/internal/workflows"
)

func newCatalog(t *testing.T, dir string) *workflows.Catalog {
	t.Helper()
	catalog, err := workflows.NewCatalog(dir, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return catalog
}

func writeWorkflow(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuiltinGeometricWorkflow(t *testing.T) {
	def, err := newCatalog(t, "").Get("geometric-reconstruction")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if def.Name != "Geometric Reconstruction" {
		t.Fatalf("unexpected name %q", def.Name)
	}
	if def.Source != workflows.SourceBuiltin {
		t.Fatalf("expected builtin source, got %q", def.Source)
	}
	if len(def.Phases) == 0 {
		t.Fatal("expected phases")
	}
	settings, err := def.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.FPS != 0.5 || settings.Agents != 5 || settings.Focus != validate.FocusShapes {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestBuiltinUIWorkflow(t *testing.T) {
	def, err := newCatalog(t, "").Get("ui-replication")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	settings, err := def.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if def.Name != "UI Replication" || settings.FPS != 2 || settings.Agents != 10 {
		t.Fatalf("unexpected ui workflow %q %+v", def.Name, settings)
	}
	if settings.LanguageOr("pt") != "pt" {
		t.Fatalf("expected language fallback, got %q", settings.LanguageOr("pt"))
	}
}

func TestEveryBuiltinHasValidSettings(t *testing.T) {
	catalog := newCatalog(t, "")
	if len(catalog.List()) != 3 {
		t.Fatalf("expected 3 builtin workflows, got %d", len(catalog.List()))
	}
	for _, def := range catalog.List() {
		if _, err := def.Settings(); err != nil {
			t.Fatalf("%s: %v", def.Slug, err)
		}
	}
}

func TestDetect(t *testing.T) {
	catalog := newCatalog(t, "")
	tests := []struct {
		task string
		want string
	}{
		{"analyze geometric shapes with measurements", "geometric-reconstruction"},
		{"replicate the user interface from this video", "ui-replication"},
		{"reconstruir formas geometricas", "geometric-reconstruction"},
		{"ANALYZE GEOMETRIC SHAPES", "geometric-reconstruction"},
		{"summarize this video", workflows.FallbackSlug},
		{"", workflows.FallbackSlug},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := catalog.Detect(tt.task); got != tt.want {
				t.Fatalf("Detect(%q) = %q, want %q", tt.task, got, tt.want)
			}
		})
	}
}

func TestDetectIsDeterministicAcrossOverlappingKeywords(t *testing.T) {
	catalog := newCatalog(t, "")
	task := "replicate the geometric layout"
	first := catalog.Detect(task)
	for i := 0; i < 20; i++ {
		if got := catalog.Detect(task); got != first {
			t.Fatalf("detection changed between calls: %q vs %q", first, got)
		}
	}
	if first != "geometric-reconstruction" {
		t.Fatalf("expected first workflow in slug order, got %q", first)
	}
}

func TestUserDirectoryOverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "ui-replication.yml", `
name: Custom UI
triggers:
  keywords: [mockup]
config:
  fps: 1
  agents: 3
  focus: ui_elements
`)
	writeWorkflow(t, dir, "code-walkthrough.yaml", `
name: Code Walkthrough
triggers:
  keywords: [source code, ide]
config:
  fps: 1
  agents: 4
  focus: code
`)
	writeWorkflow(t, dir, "notes.txt", "ignored")

	catalog := newCatalog(t, dir)
	def, err := catalog.Get("ui-replication")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if def.Name != "Custom UI" || def.Source == workflows.SourceBuiltin {
		t.Fatalf("expected user override, got %+v", def)
	}
	if got := catalog.Detect("walk through the source code"); got != "code-walkthrough" {
		t.Fatalf("expected user workflow detected, got %q", got)
	}
	if got := catalog.Detect("replicate the user interface"); got != workflows.FallbackSlug {
		t.Fatalf("expected overridden keywords to no longer match, got %q", got)
	}
}

func TestDetectSkipsMalformedWorkflows(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "aaa-broken.yml", "name: [unclosed\n")
	catalog := newCatalog(t, dir)

	if got := catalog.Detect("analyze geometric shapes"); got != "geometric-reconstruction" {
		t.Fatalf("expected detection to skip broken workflow, got %q", got)
	}
	if _, err := catalog.Get("aaa-broken"); err == nil {
		t.Fatal("expected Get to report the load error")
	}
	if _, ok := catalog.Invalid()["aaa-broken"]; !ok {
		t.Fatal("expected broken workflow listed as invalid")
	}
	for _, def := range catalog.List() {
		if def.Slug == "aaa-broken" {
			t.Fatal("broken workflow must not be listed")
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := workflows.Load(filepath.Join(dir, "missing.yml"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	empty := writeWorkflow(t, dir, "empty.yml", "")
	if _, err := workflows.Load(empty); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty file, got %v", err)
	}

	malformed := writeWorkflow(t, dir, "bad.yml", "config: {fps: 1\n")
	if _, err := workflows.Load(malformed); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for malformed YAML, got %v", err)
	}

	unnamed := writeWorkflow(t, dir, "unnamed.yml", "config:\n  fps: 1\n")
	if _, err := workflows.Load(unnamed); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestSettingsRejectOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflow(t, dir, "fast.yml", `
name: Too Fast
config:
  fps: 30
  agents: 5
  focus: generic
`)
	def, err := workflows.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := def.Settings(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMissingUserDirectory(t *testing.T) {
	_, err := workflows.NewCatalog(filepath.Join(t.TempDir(), "nope"), nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
