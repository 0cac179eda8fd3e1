package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/concord/pkg/domain"
)

// AuditHooks logs every lifecycle event. Group outcomes are logged at debug
// level, template results at info and rejections at warn.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGroupReconciled: func(ctx context.Context, e *domain.GroupEvent) {
			logger.DebugContext(ctx, "group_reconciled",
				"template_id", e.TemplateID,
				"group_id", e.GroupID,
				"state", e.State,
				"outcome", e.Outcome.String(),
				"duration", e.Duration,
			)
		},
		OnTemplateReconciled: func(ctx context.Context, e *domain.TemplateEvent) {
			logger.InfoContext(ctx, "template_reconciled",
				"template_id", e.TemplateID,
				"status", e.Status,
				"groups", e.Groups,
				"blocking", e.Blocking,
				"duration", e.Duration,
			)
		},
		OnPreferenceRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			logger.WarnContext(ctx, "preference_rejected",
				"template_id", e.TemplateID,
				"group_id", e.GroupID,
				"party", e.Party,
				"violations", e.Violations,
			)
		},
	}
}

// Combine merges hook sets; each event reaches every set in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var combined domain.LifecycleHooks
	for i, h := range hooks {
		if i == 0 {
			combined = h
			continue
		}
		combined = combined.Merge(h)
	}
	return combined
}
