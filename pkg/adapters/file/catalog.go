// Package file reads catalogs and submission batches from YAML or JSON files
// and writes results as JSON files.
package file

import (
	"fmt"
	"os"

	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/dsl"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalog shape. JSON files parse as YAML.
type catalogFile struct {
	Templates []domain.Template `yaml:"templates"`
}

// LoadCatalog reads a catalog file into an in-memory catalog. Templates are
// checked for unique group and variant ids.
func LoadCatalog(path string) (*memory.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog bytes. It accepts a document with a top-level
// "templates" list or a single template document.
func ParseCatalog(data []byte) (*memory.Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(cf.Templates) == 0 {
		var single domain.Template
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		if single.ID == "" {
			return nil, fmt.Errorf("catalog has no templates")
		}
		cf.Templates = []domain.Template{single}
	}

	templates := make([]domain.Template, 0, len(cf.Templates))
	for _, t := range cf.Templates {
		b := dsl.Template(t.ID, t.Label)
		for _, g := range t.Groups {
			gb := b.Group(g.ID, g.Label)
			for _, v := range g.Variants {
				gb.Variant(v.ID, v.Text)
			}
		}
		tpl, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("invalid template %q: %w", t.ID, err)
		}
		templates = append(templates, tpl)
	}
	return dsl.Catalog(templates...)
}
