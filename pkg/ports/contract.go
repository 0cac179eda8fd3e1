package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPreferenceStoreContract runs a suite of tests to verify that a PreferenceStore
// implementation adheres to the defined interface contract.
func RunPreferenceStoreContract(t *testing.T, store PreferenceStore) {
	ctx := context.Background()
	templateID := "contract-" + time.Now().Format("20060102150405.000000000")

	version := func(groupID string, party domain.Party, v string, order ...string) domain.StoredPreference {
		return domain.StoredPreference{
			PartyPreference: domain.PartyPreference{
				TemplateID: templateID,
				GroupID:    groupID,
				Party:      party,
				Rejected:   []string{},
				Ranking:    domain.RankingFromOrder(order),
			},
			Version:     v,
			SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Metadata:    map[string]string{"source": "contract"},
		}
	}

	t.Run("Latest Non-Existent", func(t *testing.T) {
		_, err := store.Latest(ctx, templateID, "liability", domain.PartyA)
		assert.ErrorIs(t, err, domain.ErrPreferenceNotFound)

		history, err := store.History(ctx, templateID, "liability", domain.PartyA)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Save and Latest", func(t *testing.T) {
		saved := version("liability", domain.PartyA, "v1", "X", "Y")
		require.NoError(t, store.Save(ctx, saved))

		loaded, err := store.Latest(ctx, templateID, "liability", domain.PartyA)
		require.NoError(t, err)
		assert.Equal(t, "v1", loaded.Version)
		assert.Equal(t, saved.Ranking, loaded.Ranking)
		assert.Equal(t, domain.PartyA, loaded.Party)
		assert.True(t, saved.SubmittedAt.Equal(loaded.SubmittedAt))
		assert.Equal(t, "contract", loaded.Metadata["source"])
	})

	t.Run("Resubmission Supersedes", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, version("liability", domain.PartyA, "v2", "Y", "X")))

		loaded, err := store.Latest(ctx, templateID, "liability", domain.PartyA)
		require.NoError(t, err)
		assert.Equal(t, "v2", loaded.Version)

		history, err := store.History(ctx, templateID, "liability", domain.PartyA)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "v1", history[0].Version)
		assert.Equal(t, "v2", history[1].Version)
	})

	t.Run("Parties Are Independent", func(t *testing.T) {
		_, err := store.Latest(ctx, templateID, "liability", domain.PartyB)
		assert.ErrorIs(t, err, domain.ErrPreferenceNotFound)
	})

	t.Run("ListLatest", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, version("liability", domain.PartyB, "v3", "X")))
		require.NoError(t, store.Save(ctx, version("governing_law", domain.PartyA, "v4", "ny")))

		latest, err := store.ListLatest(ctx, templateID)
		require.NoError(t, err)

		var got []string
		for _, p := range latest {
			got = append(got, fmt.Sprintf("%s/%s/%s", p.GroupID, p.Party, p.Version))
		}
		assert.Equal(t, []string{
			"governing_law/party_a/v4",
			"liability/party_a/v2",
			"liability/party_b/v3",
		}, got)

		other, err := store.ListLatest(ctx, templateID+"-other")
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}
