package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/concord/internal/presentation/graph"
	"github.com/aretw0/concord/pkg/domain"
)

func result() domain.TemplateResult {
	return domain.NewTemplateResult("nda", "lowest-id", []domain.GroupOutcome{
		{GroupID: "term", State: domain.StateBothSubmitted, Outcome: domain.AutoSelected("2y", domain.BasisUnanimousTop)},
		{GroupID: "liability", State: domain.StateBothSubmitted, Outcome: domain.ScoredSelection("X", 4, nil)},
		{GroupID: "governing_law", State: domain.StatePartiallySubmitted, Outcome: domain.RedLight(domain.ReasonMissingPreference, "awaiting party_b")},
	})
}

func template() domain.Template {
	return domain.Template{
		ID:    "mutual-nda",
		Label: "Mutual \"NDA\"",
		Groups: []domain.ClauseGroup{
			{ID: "term", Label: "Term", Variants: []domain.Variant{{ID: "1y"}, {ID: "2y"}}},
			{ID: "liability", Label: "Liability", Variants: []domain.Variant{{ID: "X"}, {ID: "Y"}}},
			{ID: "governing_law", Label: "Governing Law", Variants: []domain.Variant{{ID: "ny"}, {ID: "de"}}},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tpl := template()
	res := result()
	res.TemplateID = tpl.ID

	tests := []struct {
		name     string
		showAll  bool
		contains []string
		excludes []string
	}{
		{
			name: "Shapes And Edges",
			contains: []string{
				"graph LR",
				`mutual_nda(("Mutual 'NDA'"))`,
				`mutual_nda__term["Term"]`,
				`mutual_nda__term -- "unanimous_top" --> mutual_nda__term__2y`,
				`mutual_nda__liability -- "score 4" --> mutual_nda__liability__X`,
				`mutual_nda__governing_law__red_light{{"missing_preference"}}`,
				"mutual_nda__governing_law -.-> mutual_nda__governing_law__red_light",
			},
			excludes: []string{"mutual_nda__term__1y"},
		},
		{
			name: "Styles",
			contains: []string{
				"class mutual_nda__term__2y,mutual_nda__liability__X selected;",
				"class mutual_nda__governing_law__red_light pending;",
			},
			excludes: []string{"blocked;"},
		},
		{
			name:    "Show All Variants",
			showAll: true,
			contains: []string{
				`mutual_nda__term__1y["1y"]`,
				"mutual_nda__governing_law --- mutual_nda__governing_law__de",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tpl, res, tt.showAll)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q\n%s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("expected output not to contain %q\n%s", unwanted, out)
				}
			}
		})
	}
}
