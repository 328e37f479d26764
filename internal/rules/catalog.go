// Package rules loads the rule manifest, rule definitions and context
// definitions that drive an audit.
package rules

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

//go:embed data
var embedded embed.FS

// ErrManifestUnavailable is returned when the manifest cannot be read or parsed.
var ErrManifestUnavailable = errors.New("rule manifest unavailable")

const (
	manifestFile = "manifest.yaml"
	rulesGlob    = "rules/*.yaml"
	contextsGlob = "contexts/*.yaml"
)

// Catalog reads rule data from a filesystem laid out as
// manifest.yaml, rules/*.yaml and contexts/*.yaml.
type Catalog struct {
	fsys fs.FS

	once     sync.Once
	contexts map[string]schema.ContextDefinition
	order    []string
	ctxErr   error
}

// New returns a catalog rooted at fsys.
func New(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(fmt.Sprintf("embedded rule data: %v", err))
	}
	return New(sub)
}

type manifestFileLayout struct {
	Version    string    `yaml:"version"`
	Categories yaml.Node `yaml:"categories"`
}

// LoadManifest parses the manifest, keeping categories in declaration order.
func (c *Catalog) LoadManifest() (*schema.Manifest, error) {
	data, err := fs.ReadFile(c.fsys, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestUnavailable, err)
	}

	var raw manifestFileLayout
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrManifestUnavailable, manifestFile, err)
	}
	if raw.Categories.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: categories must be a mapping", ErrManifestUnavailable)
	}

	m := &schema.Manifest{Version: raw.Version}
	nodes := raw.Categories.Content
	for i := 0; i+1 < len(nodes); i += 2 {
		var cfg schema.CategoryConfig
		if err := nodes[i+1].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: category %q: %v", ErrManifestUnavailable, nodes[i].Value, err)
		}
		cfg.Key = nodes[i].Value
		if cfg.Name == "" {
			cfg.Name = cfg.Key
		}
		m.Categories = append(m.Categories, cfg)
	}
	return m, nil
}

// LoadRules returns every rule, ordered by file name then position in file.
func (c *Catalog) LoadRules() ([]schema.Rule, error) {
	files, err := fs.Glob(c.fsys, rulesGlob)
	if err != nil {
		return nil, fmt.Errorf("list rule files: %w", err)
	}

	seen := make(map[string]string)
	var out []schema.Rule
	for _, name := range files {
		data, err := fs.ReadFile(c.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var batch []schema.Rule
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for _, r := range batch {
			if r.ID == "" {
				return nil, fmt.Errorf("%s: rule without id", path.Base(name))
			}
			if prev, dup := seen[r.ID]; dup {
				return nil, fmt.Errorf("%s: duplicate rule id %q (first defined in %s)", path.Base(name), r.ID, prev)
			}
			seen[r.ID] = path.Base(name)
			r.Severity = r.Severity.Normalize()
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Catalog) loadContexts() {
	c.contexts = make(map[string]schema.ContextDefinition)
	files, err := fs.Glob(c.fsys, contextsGlob)
	if err != nil {
		c.ctxErr = fmt.Errorf("list context files: %w", err)
		return
	}
	for _, name := range files {
		data, err := fs.ReadFile(c.fsys, name)
		if err != nil {
			c.ctxErr = fmt.Errorf("read %s: %w", name, err)
			return
		}
		var def schema.ContextDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			c.ctxErr = fmt.Errorf("parse %s: %w", name, err)
			return
		}
		if def.Key == "" {
			c.ctxErr = fmt.Errorf("%s: context without key", path.Base(name))
			return
		}
		if _, dup := c.contexts[def.Key]; !dup {
			c.order = append(c.order, def.Key)
		}
		c.contexts[def.Key] = def
	}
}

// ContextDefinition looks up a single context by key.
func (c *Catalog) ContextDefinition(key string) (schema.ContextDefinition, bool) {
	c.once.Do(c.loadContexts)
	if c.ctxErr != nil {
		return schema.ContextDefinition{}, false
	}
	def, ok := c.contexts[key]
	return def, ok
}

// LoadAllContexts returns every context definition in file order.
func (c *Catalog) LoadAllContexts() ([]schema.ContextDefinition, error) {
	c.once.Do(c.loadContexts)
	if c.ctxErr != nil {
		return nil, c.ctxErr
	}
	out := make([]schema.ContextDefinition, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.contexts[k])
	}
	return out, nil
}
