package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a template result. Each
// clause group points at the variant it settled on, or at a red light node.
// It applies semantic styling:
// - Template: ((Circle))
// - Group: [Rectangle]
// - Selected variant: ([Stadium])
// - Red light: {{Hexagon}}
// Variants nobody picked are omitted unless showAll is set.
func GenerateMermaid(tpl domain.Template, result domain.TemplateResult, showAll bool) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	root := sanitizeMermaidID(tpl.ID)
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", root, escape(labelOr(tpl.Label, tpl.ID))))

	var selected, blocked, pending []string
	for _, group := range tpl.Groups {
		groupID := root + "__" + sanitizeMermaidID(group.ID)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", groupID, escape(labelOr(group.Label, group.ID))))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", root, groupID))

		outcome, ok := result.Group(group.ID)
		if !ok {
			continue
		}

		switch outcome.Outcome.Kind {
		case domain.OutcomeAutoSelected, domain.OutcomeScoredSelection:
			variantID := groupID + "__" + sanitizeMermaidID(outcome.Outcome.VariantID)
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", variantID, escape(outcome.Outcome.VariantID)))
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", groupID, edgeLabel(outcome.Outcome), variantID))
			selected = append(selected, variantID)
		default:
			stopID := groupID + "__red_light"
			sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", stopID, escape(string(outcome.Outcome.Reason))))
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", groupID, stopID))
			if outcome.State == domain.StateBothSubmitted {
				blocked = append(blocked, stopID)
			} else {
				pending = append(pending, stopID)
			}
		}

		if showAll {
			for _, v := range group.Variants {
				if v.ID == outcome.Outcome.VariantID {
					continue
				}
				variantID := groupID + "__" + sanitizeMermaidID(v.ID)
				sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", variantID, escape(v.ID)))
				sb.WriteString(fmt.Sprintf("    %s --- %s\n", groupID, variantID))
			}
		}
	}

	sb.WriteString("\n    %% Outcome Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef selected fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef blocked fill:#fee2e2,stroke:#b91c1c,stroke-width:3px,color:#000;\n")
	sb.WriteString("    classDef pending fill:#fef9c3,stroke:#a16207,stroke-width:2px,color:#000;\n")
	writeClass(&sb, selected, "selected")
	writeClass(&sb, blocked, "blocked")
	writeClass(&sb, pending, "pending")

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	if len(ids) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("    class %s %s;\n", strings.Join(ids, ","), class))
}

func edgeLabel(o domain.Outcome) string {
	if o.Kind == domain.OutcomeScoredSelection {
		return fmt.Sprintf("score %d", o.Score)
	}
	return string(o.Basis)
}

func labelOr(label, id string) string {
	if label != "" {
		return label
	}
	return id
}

// Escape double quotes for Mermaid labels.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
