package workflows

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"vidinterp/internal/logging"
	"vidinterp/internal/services"
)

// FallbackSlug is returned by Detect when no workflow matches.
const FallbackSlug = "generic-analysis"

// SourceBuiltin marks definitions embedded in the binary.
const SourceBuiltin = "builtin"

//go:embed definitions/*.yml
var builtinFS embed.FS

type entry struct {
	def *Definition
	err error
}

// Catalog is the set of available workflows keyed by slug. Definitions that
// failed to load are kept with their error so Get can report it.
type Catalog struct {
	entries map[string]entry
	logger  *slog.Logger
}

// NewCatalog loads the built-in workflows and then every *.yml/*.yaml file in
// dir, which override built-ins sharing the same slug. An empty dir loads only
// the built-ins; a missing dir is an error.
func NewCatalog(dir string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[string]entry),
		logger:  logging.NewComponentLogger(logger, "workflows"),
	}
	if err := c.loadBuiltins(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) != "" {
		if err := c.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadBuiltins() error {
	files, err := fs.Glob(builtinFS, "definitions/*.yml")
	if err != nil {
		return fmt.Errorf("list builtin workflows: %w", err)
	}
	for _, name := range files {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read builtin workflow %s: %w", name, err)
		}
		def, err := Parse(data, SlugFromPath(name), SourceBuiltin)
		if err != nil {
			return fmt.Errorf("builtin workflow %s: %w", name, err)
		}
		c.entries[def.Slug] = entry{def: def}
	}
	return nil
}

func (c *Catalog) loadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, "workflows", "load dir", "workflows directory not found: "+dir, nil)
		}
		return services.Wrap(services.ErrConfiguration, "workflows", "load dir", "stat "+dir, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "workflows", "load dir", "not a directory: "+dir, nil)
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "workflows", "load dir", "read "+dir, err)
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, de.Name())
		def, err := Load(path)
		slug := SlugFromPath(path)
		if prev, ok := c.entries[slug]; ok && prev.def != nil && prev.def.Source == SourceBuiltin {
			c.logger.Debug("workflow overrides builtin", logging.String("workflow", slug), logging.String("path", path))
		}
		c.entries[slug] = entry{def: def, err: err}
	}
	return nil
}

// Slugs returns every known slug in sorted order, including broken ones.
func (c *Catalog) Slugs() []string {
	slugs := make([]string, 0, len(c.entries))
	for slug := range c.entries {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)
	return slugs
}

// Get returns the definition for slug, or the error it failed to load with.
func (c *Catalog) Get(slug string) (*Definition, error) {
	e, ok := c.entries[slug]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "workflows", "get", "unknown workflow: "+slug, nil)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.def, nil
}

// List returns the loadable definitions in slug order.
func (c *Catalog) List() []*Definition {
	out := make([]*Definition, 0, len(c.entries))
	for _, slug := range c.Slugs() {
		if e := c.entries[slug]; e.err == nil {
			out = append(out, e.def)
		}
	}
	return out
}

// Invalid returns the load error of every broken definition keyed by slug.
func (c *Catalog) Invalid() map[string]error {
	out := make(map[string]error)
	for slug, e := range c.entries {
		if e.err != nil {
			out[slug] = e.err
		}
	}
	return out
}

// Detect returns the slug of the first workflow, in slug order, whose trigger
// keywords occur in the task. The fallback workflow is never matched by
// keyword. Broken definitions are skipped with a warning.
func (c *Catalog) Detect(task string) string {
	lowered := strings.ToLower(task)
	for _, slug := range c.Slugs() {
		if slug == FallbackSlug {
			continue
		}
		e := c.entries[slug]
		if e.err != nil {
			logging.WarnWithContext(c.logger, "skipping malformed workflow", "workflow_invalid",
				logging.String("workflow", slug),
				logging.Error(e.err),
				logging.String(logging.FieldErrorHint, "fix or remove the workflow file"),
				logging.String(logging.FieldImpact, "workflow ignored during detection"),
			)
			continue
		}
		if e.def.Matches(lowered) {
			c.logger.Debug("workflow matched", logging.String("workflow", slug))
			return slug
		}
	}
	return FallbackSlug
}
