/*
Package dsl provides a Go DSL for programmatically constructing Concord contract templates.

It allows developers to define templates, clause groups and variants with a
fluent builder instead of relying on external YAML or Markdown files. This is
particularly useful for tests, embedded catalogs and generated templates.

Example usage:

	package main

	import (
		"github.com/aretw0/concord/pkg/dsl"
	)

	func main() {
		nda, err := dsl.Template("nda", "Mutual NDA").
			Group("term", "Term").
			Variant("1y", "One year from the Effective Date.").
			Variant("2y", "Two years from the Effective Date.").
			Group("liability", "Limitation of Liability").
			Variant("capped", "Capped at fees paid.").
			Variant("uncapped", "Uncapped.").
			Build()
		if err != nil {
			panic(err)
		}

		// The resulting catalog can be used as a ports.CatalogLoader
		catalog, _ := dsl.Catalog(nda)
		_ = catalog
	}
*/
package dsl
