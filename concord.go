package concord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/orchestrator"
	"github.com/aretw0/concord/pkg/reconcile"
	"github.com/aretw0/concord/pkg/validator"
)

// Engine is the high-level entry point for the Concord library.
// It wraps the validator, the reconciliation algorithm and the batch
// orchestrator behind one configured value. It keeps no state between calls.
type Engine struct {
	orchestrator *orchestrator.Orchestrator
	tieBreaker   reconcile.TieBreaker
	workers      int
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTieBreak selects the strategy for ties that survive the rank criteria.
func WithTieBreak(tb reconcile.TieBreaker) Option {
	return func(e *Engine) {
		e.tieBreaker = tb
	}
}

// WithWorkers bounds how many clause groups are reconciled concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Concord Engine. Without options it breaks final ties by
// lowest variant id and uses one worker per CPU.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.tieBreaker == nil {
		eng.tieBreaker = reconcile.LowestID{}
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.orchestrator = orchestrator.New(
		orchestrator.WithWorkers(eng.workers),
		orchestrator.WithTieBreaker(eng.tieBreaker),
		orchestrator.WithLifecycleHooks(eng.hooks),
		orchestrator.WithLogger(eng.logger),
	)
	return eng
}

// NewFromConfig builds an Engine from a strategy name as found in configuration.
func NewFromConfig(tieBreak, seed string, opts ...Option) (*Engine, error) {
	tb, err := reconcile.ParseTieBreak(tieBreak, seed)
	if err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	return New(append([]Option{WithTieBreak(tb)}, opts...)...), nil
}

// Validate checks a raw submission against its clause group and returns the
// normalized preference. Failures wrap domain.ErrInvalidPreference.
func (e *Engine) Validate(group domain.ClauseGroup, pref domain.PartyPreference) (domain.Preference, error) {
	return validator.Validate(group, pref)
}

// Reconcile derives the outcome for one clause group from two validated preferences.
func (e *Engine) Reconcile(group domain.ClauseGroup, a, b domain.Preference) domain.Outcome {
	return reconcile.Reconcile(group.ID, a, b, e.tieBreaker)
}

// ReconcileTemplate reconciles every group of tpl. Missing and invalid
// submissions surface as Red Light outcomes; the call itself never fails.
func (e *Engine) ReconcileTemplate(ctx context.Context, tpl domain.Template, subs domain.Submissions) domain.TemplateResult {
	return e.orchestrator.Run(ctx, tpl, subs)
}

// ReconcileGroup reconciles a single group of tpl from raw submissions.
func (e *Engine) ReconcileGroup(ctx context.Context, tpl domain.Template, groupID string, subs domain.Submissions) (domain.GroupOutcome, error) {
	group, ok := tpl.Group(groupID)
	if !ok {
		return domain.GroupOutcome{}, fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, groupID, tpl.ID)
	}
	return e.orchestrator.Group(ctx, tpl.ID, group, subs[groupID]), nil
}

// TieBreak names the configured tie-break strategy.
func (e *Engine) TieBreak() string {
	return e.tieBreaker.Name()
}
