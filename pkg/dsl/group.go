package dsl

import "github.com/aretw0/concord/pkg/domain"

// GroupBuilder provides a fluent API for configuring a clause group.
type GroupBuilder struct {
	group    domain.ClauseGroup
	template *TemplateBuilder
}

// Variant adds a candidate wording. Variants keep declaration order.
func (g *GroupBuilder) Variant(id, text string) *GroupBuilder {
	g.group.Variants = append(g.group.Variants, domain.Variant{ID: id, Text: text})
	return g
}

// Group closes this group and starts the next one on the same template.
func (g *GroupBuilder) Group(id, label string) *GroupBuilder {
	return g.template.Group(id, label)
}

// Build builds the enclosing template.
func (g *GroupBuilder) Build() (domain.Template, error) {
	return g.template.Build()
}

// MustBuild builds the enclosing template or panics.
func (g *GroupBuilder) MustBuild() domain.Template {
	return g.template.MustBuild()
}
