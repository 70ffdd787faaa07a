package workflows

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vidinterp/internal/services"
	"vidinterp/internal/validate"
)

// Triggers holds the keywords that select a workflow.
type Triggers struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Phase is an informational step of a workflow, rendered in listings.
type Phase struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Definition is a decoded workflow document.
type Definition struct {
	// Slug is the file stem, e.g. "ui-replication".
	Slug        string         `yaml:"-" json:"slug"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Triggers    Triggers       `yaml:"triggers" json:"triggers"`
	Config      map[string]any `yaml:"config" json:"config"`
	Phases      []Phase        `yaml:"phases" json:"phases,omitempty"`
	// Source is "builtin" or the file the definition was read from.
	Source string `yaml:"-" json:"source"`
}

// Settings is the validated analysis configuration of a workflow.
type Settings struct {
	Workflow string  `json:"workflow"`
	FPS      float64 `json:"fps"`
	Agents   int     `json:"agents"`
	Focus    string  `json:"focus"`
	Language string  `json:"language,omitempty"`
}

// LanguageOr returns the workflow language, or fallback when none is set.
func (s Settings) LanguageOr(fallback string) string {
	if s.Language != "" {
		return s.Language
	}
	return fallback
}

// Settings validates the config mapping and returns its typed form.
func (d *Definition) Settings() (Settings, error) {
	cfg, err := validate.WorkflowSettings(d.Config)
	if err != nil {
		return Settings{}, fmt.Errorf("workflow %s: %w", d.Slug, err)
	}
	return Settings{
		Workflow: d.Name,
		FPS:      cfg.FPS,
		Agents:   cfg.Agents,
		Focus:    cfg.Focus,
		Language: cfg.Language,
	}, nil
}

// Matches reports whether any trigger keyword occurs in the lowercased task.
func (d *Definition) Matches(loweredTask string) bool {
	for _, keyword := range d.Triggers.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(loweredTask, keyword) {
			return true
		}
	}
	return false
}

// Load reads a workflow definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "workflows", "load", "workflow file not found: "+path, nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "workflows", "load", "read "+path, err)
	}
	return Parse(data, SlugFromPath(path), path)
}

// Parse decodes a workflow document. Empty documents and documents without a
// name are rejected.
func Parse(data []byte, slug, source string) (*Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrConfiguration, "workflows", "parse", "empty workflow file: "+source, nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "workflows", "parse", "invalid YAML in "+source, err)
	}
	if isZero(def) {
		return nil, services.Wrap(services.ErrConfiguration, "workflows", "parse", "empty workflow file: "+source, nil)
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workflows", "parse", "workflow missing 'name' field: "+source, nil)
	}
	def.Slug = slug
	def.Source = source
	return &def, nil
}

// SlugFromPath returns the file stem used as a workflow slug.
func SlugFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isZero(def Definition) bool {
	return def.Name == "" && def.Description == "" && len(def.Triggers.Keywords) == 0 &&
		len(def.Config) == 0 && len(def.Phases) == 0
}
