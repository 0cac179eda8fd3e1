// Package orchestrator reconciles every clause group of a template in parallel
// and assembles the ordered TemplateResult.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/reconcile"
	"github.com/aretw0/concord/pkg/validator"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fans groups out over a bounded worker pool. It holds no
// per-run state and is safe for concurrent use.
type Orchestrator struct {
	workers    int
	tieBreaker reconcile.TieBreaker
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds the number of groups reconciled at once. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// WithTieBreaker sets the strategy for ties that survive the rank criteria.
func WithTieBreaker(tb reconcile.TieBreaker) Option {
	return func(o *Orchestrator) {
		o.tieBreaker = tb
	}
}

// WithLifecycleHooks registers observability hooks. Group hooks are called from
// worker goroutines.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.tieBreaker == nil {
		o.tieBreaker = reconcile.LowestID{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// TieBreaker returns the configured strategy.
func (o *Orchestrator) TieBreaker() reconcile.TieBreaker {
	return o.tieBreaker
}

// Run reconciles every group of tpl. It never fails: missing and invalid
// submissions become Red Light outcomes for their own group only. Groups keep
// catalog order regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, tpl domain.Template, subs domain.Submissions) domain.TemplateResult {
	start := time.Now()
	results := make([]domain.GroupOutcome, len(tpl.Groups))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, group := range tpl.Groups {
		g.Go(func() error {
			results[i] = o.Group(ctx, tpl.ID, group, subs[group.ID])
			return nil
		})
	}
	_ = g.Wait()

	res := domain.NewTemplateResult(tpl.ID, o.tieBreaker.Name(), results)
	elapsed := time.Since(start)

	o.logger.Info("template reconciled",
		"template_id", tpl.ID,
		"status", res.Status,
		"groups", len(results),
		"blocking", res.Blocking(),
		"duration", elapsed,
	)
	if o.hooks.OnTemplateReconciled != nil {
		o.hooks.OnTemplateReconciled(ctx, &domain.TemplateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTemplateReconciled, TemplateID: tpl.ID},
			Status:    res.Status,
			Groups:    len(results),
			Blocking:  res.Blocking(),
			Duration:  elapsed,
		})
	}
	return res
}

// Group reconciles a single clause group from whatever submissions exist for it.
func (o *Orchestrator) Group(ctx context.Context, templateID string, group domain.ClauseGroup, subs map[domain.Party]domain.PartyPreference) domain.GroupOutcome {
	start := time.Now()
	out := domain.GroupOutcome{
		GroupID: group.ID,
		Label:   group.Label,
		State:   domain.StateFor(len(subs)),
	}

	var (
		prefs    [2]domain.Preference
		missing  []string
		problems []string
	)
	for i, party := range domain.Parties {
		raw, ok := subs[party]
		if !ok {
			missing = append(missing, string(party))
			continue
		}
		p, err := o.validate(templateID, group, party, raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %s", party, describe(err)))
			o.reject(ctx, templateID, group.ID, party, err)
			continue
		}
		prefs[i] = p
	}

	switch {
	case len(problems) > 0:
		out.Outcome = domain.RedLight(domain.ReasonInvalidPreference, strings.Join(problems, "; "))
	case len(missing) > 0:
		out.Outcome = domain.RedLight(domain.ReasonMissingPreference, "awaiting "+strings.Join(missing, " and "))
	default:
		out.Outcome = reconcile.Reconcile(group.ID, prefs[0], prefs[1], o.tieBreaker)
	}

	elapsed := time.Since(start)
	o.logger.Debug("group reconciled",
		"template_id", templateID,
		"group_id", group.ID,
		"state", out.State,
		"outcome", out.Outcome.String(),
	)
	if o.hooks.OnGroupReconciled != nil {
		o.hooks.OnGroupReconciled(ctx, &domain.GroupEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGroupReconciled, TemplateID: templateID},
			GroupID:   group.ID,
			State:     out.State,
			Outcome:   out.Outcome,
			Duration:  elapsed,
		})
	}
	return out
}

// validate fills the group and party from the submission's key when the
// capture layer left them blank.
func (o *Orchestrator) validate(templateID string, group domain.ClauseGroup, party domain.Party, raw domain.PartyPreference) (domain.Preference, error) {
	if raw.GroupID == "" {
		raw.GroupID = group.ID
	}
	if raw.Party == "" {
		raw.Party = party
	}
	if raw.Party != party {
		return domain.Preference{}, &validator.InvalidPreferenceError{
			GroupID: group.ID,
			Party:   raw.Party,
			Violations: []validator.Violation{{
				Code:    validator.CodeUnknownParty,
				Message: fmt.Sprintf("submission from %q filed under %q", raw.Party, party),
			}},
		}
	}
	return validator.ValidateFor(templateID, group, raw)
}

func (o *Orchestrator) reject(ctx context.Context, templateID, groupID string, party domain.Party, err error) {
	var codes []string
	for _, v := range validator.Violations(err) {
		codes = append(codes, string(v.Code))
	}
	o.logger.Warn("preference rejected",
		"template_id", templateID,
		"group_id", groupID,
		"party", party,
		"violations", codes,
	)
	if o.hooks.OnPreferenceRejected != nil {
		o.hooks.OnPreferenceRejected(ctx, &domain.RejectionEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventPreferenceRejected, TemplateID: templateID},
			GroupID:    groupID,
			Party:      party,
			Violations: codes,
		})
	}
}

func describe(err error) string {
	vs := validator.Violations(err)
	if len(vs) == 0 {
		return err.Error()
	}
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}
