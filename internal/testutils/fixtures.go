package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// NDA returns a three-group template used across adapter tests.
func NDA() domain.Template {
	return dsl.Template("nda", "Mutual NDA").
		Group("term", "Term").
		Variant("1y", "One year from the Effective Date.").
		Variant("2y", "Two years from the Effective Date.").
		Group("liability", "Limitation of Liability").
		Variant("X", "Capped at fees paid.").
		Variant("Y", "Capped at twice the fees paid.").
		Variant("Z", "Uncapped.").
		Group("governing_law", "Governing Law").
		Variant("ny", "New York").
		Variant("de", "Delaware").
		MustBuild()
}

// Catalog returns an in-memory catalog holding NDA.
func Catalog(t *testing.T) *memory.Catalog {
	t.Helper()
	catalog, err := memory.NewCatalog(NDA())
	require.NoError(t, err)
	return catalog
}

// Ranked builds an NDA submission with the given rejections and ranking order.
func Ranked(groupID string, party domain.Party, rejected []string, order ...string) domain.PartyPreference {
	if rejected == nil {
		rejected = []string{}
	}
	return domain.PartyPreference{
		TemplateID: "nda",
		GroupID:    groupID,
		Party:      party,
		Rejected:   rejected,
		Ranking:    domain.RankingFromOrder(order),
	}
}

// ClauseRepo opens a Loam repository over a fresh clause directory holding
// files, keyed by file name.
func ClauseRepo(t *testing.T, files map[string]string, opts ...loam.Option) core.Repository {
	t.Helper()
	dir := t.TempDir()
	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "open clause directory %s", dir)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return repo
}
