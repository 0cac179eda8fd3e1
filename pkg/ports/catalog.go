package ports

import (
	"context"

	"github.com/aretw0/concord/pkg/domain"
)

// CatalogLoader defines how the engine retrieves contract templates.
// This allows the catalog source (Loam, files, memory) to be decoupled.
type CatalogLoader interface {
	// GetTemplate returns the template with its clause groups in catalog order.
	// Returns domain.ErrTemplateNotFound if the id is unknown.
	GetTemplate(ctx context.Context, id string) (domain.Template, error)

	// ListTemplates returns the ids of every available template, sorted.
	ListTemplates(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for catalogs that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the id of every changed catalog document.
	Watch(ctx context.Context) (<-chan string, error)
}
