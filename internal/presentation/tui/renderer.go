package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Styled output follows the terminal background; plain output uses the
// notty style so it stays readable when piped.
func NewRenderer(styled bool) (func(string) (string, error), error) {
	style := glamour.WithAutoStyle()
	if !styled {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// ResultMarkdown formats a template result as a markdown table, one row per
// clause group in catalog order.
func ResultMarkdown(result domain.TemplateResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", result.TemplateID)
	fmt.Fprintf(&sb, "Status: **%s**, tie-break: `%s`\n\n", result.Status, result.TieBreak)

	sb.WriteString("| Group | State | Outcome | Variant | Detail |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, g := range result.Groups {
		name := g.GroupID
		if g.Label != "" {
			name = fmt.Sprintf("%s (%s)", g.Label, g.GroupID)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			cell(name), g.State, g.Outcome.Kind, cell(g.Outcome.VariantID), cell(detail(g.Outcome)))
	}

	if blocking := result.Blocking(); len(blocking) > 0 {
		fmt.Fprintf(&sb, "\nBlocked by: %s\n", strings.Join(blocking, ", "))
	}
	return sb.String()
}

func detail(o domain.Outcome) string {
	switch o.Kind {
	case domain.OutcomeAutoSelected:
		return string(o.Basis)
	case domain.OutcomeScoredSelection:
		s := fmt.Sprintf("score %d", o.Score)
		if o.TieBreak != "" {
			s += ", tie broken by " + o.TieBreak
		}
		return s
	default:
		if o.Detail != "" {
			return fmt.Sprintf("%s: %s", o.Reason, o.Detail)
		}
		return string(o.Reason)
	}
}

// cell keeps a value inside its table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
