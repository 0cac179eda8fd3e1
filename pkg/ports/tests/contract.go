package tests

import (
	"context"
	"testing"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CatalogLoaderContractTest is a reusable test suite that verifies if an adapter
// complies with ports.CatalogLoader. expected lists the templates the loader was
// seeded with.
func CatalogLoaderContractTest(t *testing.T, loader ports.CatalogLoader, expected []domain.Template) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetTemplate_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := loader.GetTemplate(ctx, want.ID)
			require.NoError(t, err, "template %s", want.ID)
			assert.Equal(t, want.ID, got.ID)
			require.Len(t, got.Groups, len(want.Groups))
			for i, g := range want.Groups {
				assert.Equal(t, g.ID, got.Groups[i].ID, "group order of %s", want.ID)
				assert.Equal(t, g.VariantIDs(), got.Groups[i].VariantIDs(), "variant order of %s/%s", want.ID, g.ID)
			}
		}
	})

	t.Run("GetTemplate_NotFound", func(t *testing.T) {
		_, err := loader.GetTemplate(ctx, "non-existent-template")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("ListTemplates", func(t *testing.T) {
		ids, err := loader.ListTemplates(ctx)
		require.NoError(t, err)
		for _, want := range expected {
			assert.Contains(t, ids, want.ID)
		}
		assert.IsNonDecreasing(t, ids)
	})
}
