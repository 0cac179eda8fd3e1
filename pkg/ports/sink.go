package ports

import (
	"context"

	"github.com/aretw0/concord/pkg/domain"
)

// ResultSink receives template results for display. A published result
// replaces the previous one for the same template.
type ResultSink interface {
	Publish(ctx context.Context, result domain.TemplateResult) error

	// Get returns the last published result.
	// Returns domain.ErrResultNotFound if nothing was published yet.
	Get(ctx context.Context, templateID string) (domain.TemplateResult, error)
}
