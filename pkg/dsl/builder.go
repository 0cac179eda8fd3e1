package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
)

// TemplateBuilder manages the template construction.
type TemplateBuilder struct {
	tpl    domain.Template
	groups []*GroupBuilder
}

// Template starts a new template definition.
func Template(id, label string) *TemplateBuilder {
	return &TemplateBuilder{
		tpl: domain.Template{ID: id, Label: label},
	}
}

// Group appends a clause group to the template.
// Groups keep the order in which they are declared.
func (b *TemplateBuilder) Group(id, label string) *GroupBuilder {
	gb := &GroupBuilder{
		group:    domain.ClauseGroup{ID: id, Label: label},
		template: b,
	}
	b.groups = append(b.groups, gb)
	return gb
}

// Build checks the definition and returns the template.
// Every problem found is reported, joined in one error.
func (b *TemplateBuilder) Build() (domain.Template, error) {
	var errs []error
	if b.tpl.ID == "" {
		errs = append(errs, errors.New("template missing ID"))
	}

	tpl := b.tpl
	tpl.Groups = make([]domain.ClauseGroup, 0, len(b.groups))
	seen := make(map[string]bool, len(b.groups))
	for _, gb := range b.groups {
		g := gb.group
		switch {
		case g.ID == "":
			errs = append(errs, fmt.Errorf("template %q: group missing ID", tpl.ID))
		case seen[g.ID]:
			errs = append(errs, fmt.Errorf("template %q: duplicate group %q", tpl.ID, g.ID))
		}
		seen[g.ID] = true

		if len(g.Variants) == 0 {
			errs = append(errs, fmt.Errorf("group %q has no variants", g.ID))
		}
		variants := make(map[string]bool, len(g.Variants))
		for _, v := range g.Variants {
			if v.ID == "" {
				errs = append(errs, fmt.Errorf("group %q: variant missing ID", g.ID))
			} else if variants[v.ID] {
				errs = append(errs, fmt.Errorf("group %q: duplicate variant %q", g.ID, v.ID))
			}
			variants[v.ID] = true
		}
		tpl.Groups = append(tpl.Groups, g)
	}

	if len(errs) > 0 {
		return domain.Template{}, errors.Join(errs...)
	}
	return tpl, nil
}

// MustBuild is like Build but panics on an invalid definition.
// It is meant for tests and static catalogs.
func (b *TemplateBuilder) MustBuild() domain.Template {
	tpl, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tpl
}

// Catalog compiles templates into an in-memory catalog.
func Catalog(templates ...domain.Template) (*memory.Catalog, error) {
	catalog, err := memory.NewCatalog(templates...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory catalog: %w", err)
	}
	return catalog, nil
}
