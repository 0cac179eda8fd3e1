package dsl

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/concord/pkg/domain"
)

func TestBuilder_Template(t *testing.T) {
	tpl, err := Template("nda", "Mutual NDA").
		Group("term", "Term").
		Variant("1y", "One year").
		Variant("2y", "Two years").
		Group("liability", "Liability").
		Variant("X", "Capped").
		Variant("Y", "Uncapped").
		Variant("Z", "Excluded").
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if tpl.ID != "nda" || tpl.Label != "Mutual NDA" {
		t.Errorf("unexpected template header: %+v", tpl)
	}
	if len(tpl.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(tpl.Groups))
	}
	if tpl.Groups[0].ID != "term" || tpl.Groups[1].ID != "liability" {
		t.Errorf("Expected declaration order, got %s, %s", tpl.Groups[0].ID, tpl.Groups[1].ID)
	}
	if got := strings.Join(tpl.Groups[1].VariantIDs(), ","); got != "X,Y,Z" {
		t.Errorf("Expected variants X,Y,Z, got %s", got)
	}
	if v := tpl.Groups[0].Variants[1]; v.Text != "Two years" {
		t.Errorf("Expected variant text 'Two years', got %q", v.Text)
	}
}

func TestBuilder_Invalid(t *testing.T) {
	_, err := Template("nda", "").
		Group("term", "").
		Variant("1y", "").
		Variant("1y", "").
		Group("term", "").
		Group("", "").
		Variant("", "").
		Build()
	if err == nil {
		t.Fatal("Build() should fail")
	}

	for _, want := range []string{
		`duplicate variant "1y"`,
		`duplicate group "term"`,
		"group missing ID",
		"variant missing ID",
		`group "term" has no variants`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestMustBuild_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBuild() should panic on an empty template ID")
		}
	}()
	Template("", "").Group("g", "").Variant("v", "").MustBuild()
}

func TestCatalog(t *testing.T) {
	nda := Template("nda", "").Group("term", "").Variant("1y", "").MustBuild()
	msa := Template("msa", "").Group("payment", "").Variant("net30", "").MustBuild()

	catalog, err := Catalog(nda, msa)
	if err != nil {
		t.Fatalf("Catalog() failed: %v", err)
	}

	ids, _ := catalog.ListTemplates(context.Background())
	if strings.Join(ids, ",") != "msa,nda" {
		t.Errorf("Expected msa,nda, got %v", ids)
	}

	got, err := catalog.GetTemplate(context.Background(), "nda")
	if err != nil {
		t.Fatalf("GetTemplate() failed: %v", err)
	}
	if _, ok := got.Group("term"); !ok {
		t.Error("Expected group 'term'")
	}

	if _, err := Catalog(nda, nda); err == nil {
		t.Error("Catalog() should reject duplicate templates")
	}
	_, err = catalog.GetTemplate(context.Background(), "sow")
	if err == nil || !strings.Contains(err.Error(), domain.ErrTemplateNotFound.Error()) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}
