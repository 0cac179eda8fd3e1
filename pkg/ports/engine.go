package ports

import (
	"context"

	"github.com/aretw0/concord/pkg/domain"
)

// Reconciler defines the engine surface used by host adapters (HTTP, MCP, CLI).
// Implementations are stateless: all input arrives with the call.
type Reconciler interface {
	// Validate checks a raw submission against its clause group.
	Validate(group domain.ClauseGroup, pref domain.PartyPreference) (domain.Preference, error)

	// Reconcile derives the outcome of one group from two validated preferences.
	Reconcile(group domain.ClauseGroup, a, b domain.Preference) domain.Outcome

	// ReconcileTemplate reconciles every group of the template. It never fails.
	ReconcileTemplate(ctx context.Context, tpl domain.Template, subs domain.Submissions) domain.TemplateResult

	// TieBreak names the configured tie-break strategy.
	TieBreak() string
}
