package tui

import (
	"strings"
	"testing"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() domain.TemplateResult {
	scored := domain.ScoredSelection("X", 4, nil)
	scored.TieBreak = "lowest-id"
	return domain.NewTemplateResult("nda", "lowest-id", []domain.GroupOutcome{
		{GroupID: "term", Label: "Term", State: domain.StateBothSubmitted, Outcome: domain.AutoSelected("2y", domain.BasisUnanimousTop)},
		{GroupID: "liability", State: domain.StateBothSubmitted, Outcome: scored},
		{GroupID: "governing_law", State: domain.StateBothSubmitted, Outcome: domain.RedLight(domain.ReasonNoOverlap, "")},
	})
}

func TestResultMarkdown(t *testing.T) {
	md := ResultMarkdown(sample())

	assert.Contains(t, md, "# nda")
	assert.Contains(t, md, "Status: **blocked**")
	assert.Contains(t, md, "| Term (term) | both_submitted | auto_selected | 2y | unanimous_top |")
	assert.Contains(t, md, "| liability | both_submitted | scored_selection | X | score 4, tie broken by lowest-id |")
	assert.Contains(t, md, "| governing_law | both_submitted | red_light |  | no_overlap |")
	assert.Contains(t, md, "Blocked by: governing_law")
}

func TestNewRenderer_Plain(t *testing.T) {
	render, err := NewRenderer(false)
	require.NoError(t, err)

	out, err := render(ResultMarkdown(sample()))
	require.NoError(t, err)
	assert.Contains(t, out, "nda")
	assert.Contains(t, out, "governing_law")
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, "[RESOLVED]", StatusBadge(domain.StatusResolved, false))
	assert.Equal(t, "[BLOCKED]", StatusBadge(domain.StatusBlocked, false))
	assert.True(t, strings.Contains(StatusBadge(domain.StatusBlocked, true), "BLOCKED"))
}
