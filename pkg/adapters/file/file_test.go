package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/orchestrator"
	"github.com/aretw0/concord/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)

	tpl, err := catalog.GetTemplate(context.Background(), "nda")
	require.NoError(t, err)
	require.Len(t, tpl.Groups, 2)
	assert.Equal(t, []string{"X", "Y", "Z"}, tpl.Groups[1].VariantIDs())
}

func TestParseCatalog_SingleTemplateJSON(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`{"id":"msa","groups":[{"id":"payment","variants":[{"id":"net30"},{"id":"net60"}]}]}`))
	require.NoError(t, err)
	ids, _ := catalog.ListTemplates(context.Background())
	assert.Equal(t, []string{"msa"}, ids)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("templates: []\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`
templates:
  - id: nda
    groups:
      - id: term
        variants: [{id: 1y}, {id: 1y}]
`))
	assert.ErrorContains(t, err, "duplicate variant")
}

func TestLoadSubmissions(t *testing.T) {
	batch, err := LoadSubmissions(filepath.Join("testdata", "submissions.yaml"))
	require.NoError(t, err)
	require.Len(t, batch.Submissions, 4)
	assert.Equal(t, []string{"nda"}, batch.TemplateIDs())
	assert.Equal(t, "counsel@b.example", batch.Submissions[3].Metadata["submitted_by"])

	catalog, err := LoadCatalog(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	tpl, err := catalog.GetTemplate(context.Background(), "nda")
	require.NoError(t, err)

	res := orchestrator.New().Run(context.Background(), tpl, batch.ForTemplate("nda"))
	assert.Equal(t, domain.StatusResolved, res.Status)
	assert.Equal(t, domain.AutoSelected("2y", domain.BasisUnanimousTop), res.Groups[0].Outcome)
	assert.Equal(t, "X", res.Groups[1].Outcome.VariantID)
}

func TestParseSubmissions_ReportsEveryMalformedEntry(t *testing.T) {
	_, err := ParseSubmissions([]byte(`
submissions:
  - group_id: term
    colour: blue
  - group_id: term
    ranking: [a]
    ranks: {a: 1}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, validator.ErrMalformedSubmission)
	assert.ErrorContains(t, err, "submission 1")
	assert.ErrorContains(t, err, "submission 2")
}

func TestSink(t *testing.T) {
	ctx := context.Background()
	sink := NewSink(t.TempDir())

	_, err := sink.Get(ctx, "nda")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)

	res := domain.NewTemplateResult("nda", "lowest-id", []domain.GroupOutcome{
		{GroupID: "term", State: domain.StateBothSubmitted, Outcome: domain.AutoSelected("2y", domain.BasisUnanimousTop)},
	})
	require.NoError(t, sink.Publish(ctx, res))
	// Overwrite
	require.NoError(t, sink.Publish(ctx, res))

	got, err := sink.Get(ctx, "nda")
	require.NoError(t, err)
	assert.Equal(t, res, got)
}
