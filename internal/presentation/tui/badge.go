package tui

import (
	"github.com/aretw0/concord/pkg/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	badgeBase     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	resolvedBadge = badgeBase.Foreground(lipgloss.Color("#052e16")).Background(lipgloss.Color("#4ade80"))
	blockedBadge  = badgeBase.Foreground(lipgloss.Color("#fff1f2")).Background(lipgloss.Color("#e11d48"))
)

// StatusBadge renders the template status as a coloured label. Without
// styling it falls back to a bracketed word.
func StatusBadge(status domain.Status, styled bool) string {
	label := "RESOLVED"
	style := resolvedBadge
	if status != domain.StatusResolved {
		label = "BLOCKED"
		style = blockedBadge
	}
	if !styled {
		return "[" + label + "]"
	}
	return style.Render(label)
}
