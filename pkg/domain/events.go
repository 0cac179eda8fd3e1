package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventGroupReconciled    EventType = "group_reconciled"
	EventTemplateReconciled EventType = "template_reconciled"
	EventPreferenceRejected EventType = "preference_rejected"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	TemplateID string    `json:"template_id"`
}

// GroupEvent reports the outcome computed for one clause group.
type GroupEvent struct {
	EventBase
	GroupID  string        `json:"group_id"`
	State    GroupState    `json:"state"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// TemplateEvent reports a finished batch over a template.
type TemplateEvent struct {
	EventBase
	Status   Status        `json:"status"`
	Groups   int           `json:"groups"`
	Blocking []string      `json:"blocking,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RejectionEvent reports a submission that failed validation.
type RejectionEvent struct {
	EventBase
	GroupID    string   `json:"group_id"`
	Party      Party    `json:"party"`
	Violations []string `json:"violations"`
}

// LifecycleHooks defines callbacks for engine observability.
// Group hooks may fire concurrently from orchestrator workers.
type LifecycleHooks struct {
	OnGroupReconciled    func(context.Context, *GroupEvent)
	OnTemplateReconciled func(context.Context, *TemplateEvent)
	OnPreferenceRejected func(context.Context, *RejectionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnGroupReconciled: func(ctx context.Context, e *GroupEvent) {
			if h.OnGroupReconciled != nil {
				h.OnGroupReconciled(ctx, e)
			}
			if other.OnGroupReconciled != nil {
				other.OnGroupReconciled(ctx, e)
			}
		},
		OnTemplateReconciled: func(ctx context.Context, e *TemplateEvent) {
			if h.OnTemplateReconciled != nil {
				h.OnTemplateReconciled(ctx, e)
			}
			if other.OnTemplateReconciled != nil {
				other.OnTemplateReconciled(ctx, e)
			}
		},
		OnPreferenceRejected: func(ctx context.Context, e *RejectionEvent) {
			if h.OnPreferenceRejected != nil {
				h.OnPreferenceRejected(ctx, e)
			}
			if other.OnPreferenceRejected != nil {
				other.OnPreferenceRejected(ctx, e)
			}
		},
	}
}
