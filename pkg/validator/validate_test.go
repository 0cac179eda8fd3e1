package validator

import (
	"errors"
	"testing"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liabilityGroup() domain.ClauseGroup {
	return domain.ClauseGroup{
		ID:    "liability",
		Label: "Limitation of Liability",
		Variants: []domain.Variant{
			{ID: "X", Text: "Capped at fees paid"},
			{ID: "Y", Text: "Capped at twice the fees paid"},
			{ID: "Z", Text: "Uncapped"},
		},
	}
}

func submission(party domain.Party, rejected []string, order ...string) domain.PartyPreference {
	return domain.PartyPreference{
		TemplateID: "nda",
		GroupID:    "liability",
		Party:      party,
		Rejected:   rejected,
		Ranking:    domain.RankingFromOrder(order),
	}
}

func TestValidate_Success(t *testing.T) {
	pref, err := Validate(liabilityGroup(), submission(domain.PartyA, []string{"Z"}, "Y", "X"))
	require.NoError(t, err)

	assert.Equal(t, "liability", pref.GroupID)
	assert.Equal(t, domain.PartyA, pref.Party)
	assert.Equal(t, map[string]int{"Y": 1, "X": 2}, pref.Ranks)
	assert.Equal(t, []string{"Z"}, pref.RejectedIDs())
	assert.Equal(t, "Y", pref.Top)
	assert.Equal(t, []string{"Y", "X"}, pref.Ranked())
}

func TestValidate_RejectEverything(t *testing.T) {
	pref, err := Validate(liabilityGroup(), submission(domain.PartyB, []string{"X", "Y", "Z"}))
	require.NoError(t, err)
	assert.Empty(t, pref.Ranks)
	assert.Empty(t, pref.Top)
	assert.Len(t, pref.Rejected, 3)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		pref  domain.PartyPreference
		codes []string
	}{
		{
			name: "wrong group",
			pref: func() domain.PartyPreference {
				p := submission(domain.PartyA, []string{"Z"}, "X", "Y")
				p.GroupID = "indemnity"
				return p
			}(),
			codes: []string{string(CodeGroupMismatch)},
		},
		{
			name:  "unknown party",
			pref:  submission("party_c", []string{"Z"}, "X", "Y"),
			codes: []string{string(CodeUnknownParty)},
		},
		{
			name:  "unknown variant",
			pref:  submission(domain.PartyA, []string{"Z"}, "X", "Y", "W"),
			codes: []string{string(CodeUnknownVariant)},
		},
		{
			name:  "ranked and rejected",
			pref:  submission(domain.PartyA, []string{"X", "Z"}, "X", "Y"),
			codes: []string{string(CodeDuplicateVariant)},
		},
		{
			name:  "ranked twice",
			pref:  submission(domain.PartyA, []string{"Z"}, "X", "Y", "X"),
			codes: []string{string(CodeDuplicateVariant)},
		},
		{
			name: "duplicate rank",
			pref: domain.PartyPreference{
				GroupID: "liability",
				Party:   domain.PartyA,
				Ranking: []domain.RankedVariant{{VariantID: "X", Rank: 1}, {VariantID: "Y", Rank: 1}, {VariantID: "Z", Rank: 2}},
			},
			codes: []string{string(CodeDuplicateRank)},
		},
		{
			name: "rank gap",
			pref: domain.PartyPreference{
				GroupID:  "liability",
				Party:    domain.PartyA,
				Rejected: []string{"Z"},
				Ranking:  []domain.RankedVariant{{VariantID: "X", Rank: 1}, {VariantID: "Y", Rank: 3}},
			},
			codes: []string{string(CodeRankGap), string(CodeRankGap)},
		},
		{
			name:  "variant left out",
			pref:  submission(domain.PartyB, nil, "X", "Y"),
			codes: []string{string(CodePartitionMismatch)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(liabilityGroup(), tt.pref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidPreference))

			var inv *InvalidPreferenceError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, tt.codes, inv.Codes())
			assert.Len(t, Violations(err), len(tt.codes))
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	pref := domain.PartyPreference{
		GroupID: "other",
		Party:   "nobody",
		Ranking: []domain.RankedVariant{{VariantID: "W", Rank: 1}},
	}
	_, err := Validate(liabilityGroup(), pref)
	require.Error(t, err)

	assert.Equal(t, []string{
		string(CodeGroupMismatch),
		string(CodeUnknownParty),
		string(CodeUnknownVariant),
		string(CodePartitionMismatch),
		string(CodePartitionMismatch),
		string(CodePartitionMismatch),
	}, err.(*InvalidPreferenceError).Codes())
	assert.Contains(t, err.Error(), "6 violations")
}

func TestRevalidate_Idempotent(t *testing.T) {
	group := liabilityGroup()
	inputs := []domain.PartyPreference{
		submission(domain.PartyA, []string{"Z"}, "Y", "X"),
		submission(domain.PartyB, nil, "Z", "X", "Y"),
		submission(domain.PartyB, []string{"Y", "X", "Z"}),
	}
	for _, in := range inputs {
		first, err := Validate(group, in)
		require.NoError(t, err)
		second, err := Revalidate(group, first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestValidateIn(t *testing.T) {
	tpl := domain.Template{ID: "nda", Groups: []domain.ClauseGroup{liabilityGroup()}}

	pref, err := ValidateIn(tpl, submission(domain.PartyA, []string{"Z"}, "X", "Y"))
	require.NoError(t, err)
	assert.Equal(t, "nda", pref.TemplateID)

	missing := submission(domain.PartyA, nil, "X")
	missing.GroupID = "term"
	_, err = ValidateIn(tpl, missing)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	foreign := submission(domain.PartyA, []string{"Z"}, "X", "Y")
	foreign.TemplateID = "msa"
	_, err = ValidateIn(tpl, foreign)
	assert.ErrorIs(t, err, domain.ErrInvalidPreference)
	assert.Equal(t, []string{string(CodeGroupMismatch)}, err.(*InvalidPreferenceError).Codes())
}
