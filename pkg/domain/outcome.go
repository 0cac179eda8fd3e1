package domain

import "fmt"

// OutcomeKind classifies a clause group's reconciliation result.
type OutcomeKind string

const (
	// OutcomeAutoSelected is a unanimous top choice or a single shared survivor.
	OutcomeAutoSelected OutcomeKind = "auto_selected"
	// OutcomeScoredSelection is a choice made by the scoring rule among 2+ shared candidates.
	OutcomeScoredSelection OutcomeKind = "scored_selection"
	// OutcomeRedLight signals that no mutually acceptable variant exists (or input is unusable).
	OutcomeRedLight OutcomeKind = "red_light"
)

// SelectionBasis explains why an AutoSelected outcome skipped scoring.
type SelectionBasis string

const (
	BasisUnanimousTop   SelectionBasis = "unanimous_top"
	BasisSingleSurvivor SelectionBasis = "single_survivor"
)

// RedLightReason distinguishes the causes of a RedLight.
type RedLightReason string

const (
	// ReasonNoOverlap means every variant was rejected by at least one party.
	ReasonNoOverlap RedLightReason = "no_overlap"
	// ReasonMissingPreference means a party never answered.
	ReasonMissingPreference RedLightReason = "missing_preference"
	// ReasonInvalidPreference means a submission failed validation.
	ReasonInvalidPreference RedLightReason = "invalid_preference"
)

// GroupState is the orchestrator's view of submission progress for a group.
type GroupState string

const (
	StatePending            GroupState = "pending"
	StatePartiallySubmitted GroupState = "partially_submitted"
	StateBothSubmitted      GroupState = "both_submitted"
)

// StateFor derives the group state from the number of parties that submitted.
func StateFor(submitted int) GroupState {
	switch {
	case submitted <= 0:
		return StatePending
	case submitted == 1:
		return StatePartiallySubmitted
	default:
		return StateBothSubmitted
	}
}

// CandidateScore is the scoring breakdown for one shared variant.
type CandidateScore struct {
	VariantID string `json:"variant_id"`
	RankA     int    `json:"rank_a"`
	RankB     int    `json:"rank_b"`
	Score     int    `json:"score"`
}

// Outcome is the result of reconciling one clause group.
type Outcome struct {
	Kind      OutcomeKind    `json:"kind"`
	VariantID string         `json:"variant_id,omitempty"`
	Basis     SelectionBasis `json:"basis,omitempty"`
	Score     int            `json:"score,omitempty"`
	Reason    RedLightReason `json:"reason,omitempty"`
	Detail    string         `json:"detail,omitempty"`

	// Scores lists every shared candidate when the scoring rule ran.
	Scores []CandidateScore `json:"scores,omitempty"`
	// TieBreak names the strategy that decided a tie that survived both rank criteria.
	TieBreak string `json:"tie_break,omitempty"`
}

// AutoSelected builds an AutoSelected outcome.
func AutoSelected(variantID string, basis SelectionBasis) Outcome {
	return Outcome{Kind: OutcomeAutoSelected, VariantID: variantID, Basis: basis}
}

// ScoredSelection builds a ScoredSelection outcome.
func ScoredSelection(variantID string, score int, scores []CandidateScore) Outcome {
	return Outcome{Kind: OutcomeScoredSelection, VariantID: variantID, Score: score, Scores: scores}
}

// RedLight builds a RedLight outcome.
func RedLight(reason RedLightReason, detail string) Outcome {
	return Outcome{Kind: OutcomeRedLight, Reason: reason, Detail: detail}
}

// IsRedLight reports whether the outcome blocks the template.
func (o Outcome) IsRedLight() bool {
	return o.Kind == OutcomeRedLight
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeAutoSelected:
		return fmt.Sprintf("AutoSelected(%s, %s)", o.VariantID, o.Basis)
	case OutcomeScoredSelection:
		return fmt.Sprintf("ScoredSelection(%s, %d)", o.VariantID, o.Score)
	default:
		return fmt.Sprintf("RedLight(%s)", o.Reason)
	}
}

// GroupOutcome pairs a clause group with its outcome and submission state.
type GroupOutcome struct {
	GroupID string     `json:"group_id"`
	Label   string     `json:"label,omitempty"`
	State   GroupState `json:"state"`
	Outcome Outcome    `json:"outcome"`
}

// Status is the template-level aggregate.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusBlocked  Status = "blocked"
)

// TemplateResult is the ordered outcome sequence for a template.
// It is a derived value: recomputed and replaced, never mutated.
type TemplateResult struct {
	TemplateID string         `json:"template_id"`
	TieBreak   string         `json:"tie_break"`
	Groups     []GroupOutcome `json:"groups"`
	Status     Status         `json:"status"`
}

// NewTemplateResult builds a result and derives its Status.
func NewTemplateResult(templateID, tieBreak string, groups []GroupOutcome) TemplateResult {
	return TemplateResult{
		TemplateID: templateID,
		TieBreak:   tieBreak,
		Groups:     groups,
		Status:     DeriveStatus(groups),
	}
}

// DeriveStatus returns StatusResolved if no outcome is a RedLight.
func DeriveStatus(groups []GroupOutcome) Status {
	for _, g := range groups {
		if g.Outcome.IsRedLight() {
			return StatusBlocked
		}
	}
	return StatusResolved
}

// Group returns the outcome for a clause group.
func (r TemplateResult) Group(id string) (GroupOutcome, bool) {
	for _, g := range r.Groups {
		if g.GroupID == id {
			return g, true
		}
	}
	return GroupOutcome{}, false
}

// Blocking returns the ids of groups whose outcome is a RedLight, in catalog order.
func (r TemplateResult) Blocking() []string {
	var ids []string
	for _, g := range r.Groups {
		if g.Outcome.IsRedLight() {
			ids = append(ids, g.GroupID)
		}
	}
	return ids
}
