package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/concord/pkg/domain"
)

// Catalog implements ports.CatalogLoader using an in-memory map.
type Catalog struct {
	templates map[string]domain.Template
}

// NewCatalog creates a new in-memory catalog from domain objects.
func NewCatalog(templates ...domain.Template) (*Catalog, error) {
	data := make(map[string]domain.Template, len(templates))
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		if _, dup := data[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.ID)
		}
		data[t.ID] = t
	}
	return &Catalog{templates: data}, nil
}

// GetTemplate retrieves a template by ID.
func (c *Catalog) GetTemplate(_ context.Context, id string) (domain.Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return t, nil
}

// ListTemplates returns all available template IDs.
func (c *Catalog) ListTemplates(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
