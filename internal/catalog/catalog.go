// Package catalog loads the source catalogue and keeps it current while the
// file changes on disk.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

type document struct {
	Sources []domain.Source `json:"sources" yaml:"sources"`
}

// Parse decodes a catalogue document. YAML is used for .yaml and .yml
// names, JSON otherwise.
func Parse(data []byte, name string) ([]domain.Source, error) {
	var doc document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalogue %s: %w", name, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode catalogue %s: %w", name, err)
		}
	}
	return normalize(doc.Sources)
}

func normalize(in []domain.Source) ([]domain.Source, error) {
	out := make([]domain.Source, 0, len(in))
	seen := make(map[string]bool, len(in))
	var errs []error
	for i, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		s.Domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.Domain)), "www.")
		s.PrimaryRSS = strings.TrimSpace(s.PrimaryRSS)
		s.BackupRSS = strings.TrimSpace(s.BackupRSS)
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("source %d: name is required", i))
			continue
		case s.Domain == "":
			errs = append(errs, fmt.Errorf("source %q: domain is required", s.Name))
			continue
		case seen[s.Domain]:
			errs = append(errs, fmt.Errorf("source %q: duplicate domain %s", s.Name, s.Domain))
			continue
		}
		if s.AuthorityLevel < 1 || s.AuthorityLevel > 3 {
			s.AuthorityLevel = 3
		}
		seen[s.Domain] = true
		out = append(out, s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("catalogue has no sources")
	}
	return out, nil
}

// Load reads and parses the catalogue at path.
func Load(path string) ([]domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return Parse(data, path)
}

// Catalog holds the current source list.
type Catalog struct {
	path    string
	sources atomic.Pointer[[]domain.Source]
}

// Open loads path into a Catalog.
func Open(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Static wraps a fixed list.
func Static(sources []domain.Source) *Catalog {
	c := &Catalog{}
	c.sources.Store(&sources)
	return c
}

// Path is the file the catalogue was loaded from.
func (c *Catalog) Path() string { return c.path }

// Sources returns a copy of the current list.
func (c *Catalog) Sources() []domain.Source {
	p := c.sources.Load()
	if p == nil {
		return nil
	}
	return slices.Clone(*p)
}

// Trusted reports whether domain belongs to a trusted source.
func (c *Catalog) Trusted(dom string) bool {
	for _, s := range c.Sources() {
		if s.Domain == dom {
			return s.Trusted
		}
	}
	return false
}

// Reload re-reads the file. On error the previous list is kept.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	sources, err := Load(c.path)
	if err != nil {
		return err
	}
	c.sources.Store(&sources)
	return nil
}
