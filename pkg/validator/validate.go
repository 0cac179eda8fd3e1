package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/concord/pkg/domain"
)

// Validate checks a submission against its clause group and returns the
// normalized preference. Every violation is reported, not only the first.
func Validate(group domain.ClauseGroup, pref domain.PartyPreference) (domain.Preference, error) {
	var violations []Violation
	report := func(v Violation) { violations = append(violations, v) }

	if pref.GroupID != group.ID {
		report(Violation{
			Code:    CodeGroupMismatch,
			Message: fmt.Sprintf("submission targets group %q, validated against %q", pref.GroupID, group.ID),
		})
	}
	if !pref.Party.Valid() {
		report(Violation{
			Code:    CodeUnknownParty,
			Message: fmt.Sprintf("party %q is not %s or %s", pref.Party, domain.PartyA, domain.PartyB),
		})
	}

	seen := make(map[string]string, len(group.Variants))
	ranks := make(map[string]int, len(pref.Ranking))
	rejected := make(map[string]struct{}, len(pref.Rejected))

	claim := func(id, where string) bool {
		if !group.HasVariant(id) {
			report(Violation{Code: CodeUnknownVariant, VariantID: id, Message: fmt.Sprintf("variant %q is not part of group %q", id, group.ID)})
			return false
		}
		if prev, dup := seen[id]; dup {
			report(Violation{Code: CodeDuplicateVariant, VariantID: id, Message: fmt.Sprintf("variant %q appears in %s and %s", id, prev, where)})
			return false
		}
		seen[id] = where
		return true
	}

	byRank := make(map[int]string, len(pref.Ranking))
	for _, rv := range pref.Ranking {
		if !claim(rv.VariantID, "ranking") {
			continue
		}
		if prev, dup := byRank[rv.Rank]; dup {
			report(Violation{Code: CodeDuplicateRank, VariantID: rv.VariantID, Rank: rv.Rank, Message: fmt.Sprintf("rank %d is held by both %q and %q", rv.Rank, prev, rv.VariantID)})
			continue
		}
		byRank[rv.Rank] = rv.VariantID
		ranks[rv.VariantID] = rv.Rank
	}
	for _, id := range pref.Rejected {
		if claim(id, "rejected") {
			rejected[id] = struct{}{}
		}
	}

	// Ranks must be exactly 1..N over the accepted ranking entries.
	for rank := 1; rank <= len(byRank); rank++ {
		if _, ok := byRank[rank]; !ok {
			report(Violation{Code: CodeRankGap, Rank: rank, Message: fmt.Sprintf("rank %d is missing from a ranking of %d", rank, len(byRank))})
		}
	}
	outOfRange := make([]int, 0)
	for rank := range byRank {
		if rank < 1 || rank > len(byRank) {
			outOfRange = append(outOfRange, rank)
		}
	}
	sort.Ints(outOfRange)
	for _, rank := range outOfRange {
		report(Violation{Code: CodeRankGap, VariantID: byRank[rank], Rank: rank, Message: fmt.Sprintf("rank %d is outside 1..%d", rank, len(byRank))})
	}

	for _, id := range group.VariantIDs() {
		if _, ok := seen[id]; !ok {
			report(Violation{Code: CodePartitionMismatch, VariantID: id, Message: fmt.Sprintf("variant %q is neither ranked nor rejected", id)})
		}
	}

	if len(violations) > 0 {
		return domain.Preference{}, &InvalidPreferenceError{GroupID: group.ID, Party: pref.Party, Violations: violations}
	}

	return domain.Preference{
		TemplateID: pref.TemplateID,
		GroupID:    group.ID,
		Party:      pref.Party,
		Ranks:      ranks,
		Rejected:   rejected,
		Top:        byRank[1],
	}, nil
}

// Revalidate checks an already normalized preference again. It is idempotent:
// a valid preference comes back unchanged.
func Revalidate(group domain.ClauseGroup, pref domain.Preference) (domain.Preference, error) {
	return Validate(group, pref.PartyPreference())
}

// ValidateIn resolves the submission's group within tpl before validating it.
func ValidateIn(tpl domain.Template, pref domain.PartyPreference) (domain.Preference, error) {
	group, ok := tpl.Group(pref.GroupID)
	if !ok {
		return domain.Preference{}, fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, pref.GroupID, tpl.ID)
	}
	return ValidateFor(tpl.ID, group, pref)
}

// ValidateFor validates a submission for a group of the given template. A
// submission naming another template is reported as a group mismatch; one that
// names no template is attributed to templateID.
func ValidateFor(templateID string, group domain.ClauseGroup, pref domain.PartyPreference) (domain.Preference, error) {
	if pref.TemplateID != "" && pref.TemplateID != templateID {
		return domain.Preference{}, &InvalidPreferenceError{
			GroupID: group.ID,
			Party:   pref.Party,
			Violations: []Violation{{
				Code:    CodeGroupMismatch,
				Message: fmt.Sprintf("submission targets template %q, validated against %q", pref.TemplateID, templateID),
			}},
		}
	}
	p, err := Validate(group, pref)
	if err != nil {
		return p, err
	}
	p.TemplateID = templateID
	return p, nil
}
