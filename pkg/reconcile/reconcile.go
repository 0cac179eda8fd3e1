package reconcile

import (
	"fmt"
	"sort"

	"github.com/aretw0/concord/pkg/domain"
)

// Score computes S(v) for a variant ranked rA by one party and rB by the other.
func Score(rA, rB int) int {
	return rA + rB + distance(rA, rB)
}

func distance(rA, rB int) int {
	if rA > rB {
		return rA - rB
	}
	return rB - rA
}

// Reconcile picks the outcome for a clause group. Both preferences must have
// been produced by the validator for the same group; a nil TieBreaker falls back
// to LowestID.
func Reconcile(groupID string, a, b domain.Preference, tb TieBreaker) domain.Outcome {
	if tb == nil {
		tb = LowestID{}
	}

	candidates := make([]domain.CandidateScore, 0, len(a.Ranks))
	for id, rA := range a.Ranks {
		rB, ok := b.Ranks[id]
		if !ok {
			continue
		}
		candidates = append(candidates, domain.CandidateScore{VariantID: id, RankA: rA, RankB: rB, Score: Score(rA, rB)})
	}

	switch {
	case len(candidates) == 0:
		return domain.RedLight(domain.ReasonNoOverlap, fmt.Sprintf("no variant of %q is acceptable to both parties", groupID))
	case a.Top != "" && a.Top == b.Top:
		return domain.AutoSelected(a.Top, domain.BasisUnanimousTop)
	case len(candidates) == 1:
		return domain.AutoSelected(candidates[0].VariantID, domain.BasisSingleSurvivor)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if c := compare(candidates[i], candidates[j]); c != 0 {
			return c < 0
		}
		return candidates[i].VariantID < candidates[j].VariantID
	})

	tied := []string{candidates[0].VariantID}
	for _, c := range candidates[1:] {
		if compare(candidates[0], c) != 0 {
			break
		}
		tied = append(tied, c.VariantID)
	}

	best := candidates[0]
	out := domain.ScoredSelection(best.VariantID, best.Score, candidates)
	if len(tied) > 1 {
		winner := tb.Pick(groupID, tied)
		out.VariantID = winner
		out.TieBreak = tb.Name()
	}
	return out
}

// compare orders candidates by score, then rank distance, then rank sum.
func compare(x, y domain.CandidateScore) int {
	if x.Score != y.Score {
		return x.Score - y.Score
	}
	if dx, dy := distance(x.RankA, x.RankB), distance(y.RankA, y.RankB); dx != dy {
		return dx - dy
	}
	return (x.RankA + x.RankB) - (y.RankA + y.RankB)
}
