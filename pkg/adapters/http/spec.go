package http

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
})

// GetSwagger returns the parsed and validated API description.
func GetSwagger() (*openapi3.T, error) {
	return loadSpec()
}

// validateSchema checks a decoded JSON value against a named component schema.
func validateSchema(name string, value any) error {
	doc, err := loadSpec()
	if err != nil {
		return err
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %q is not defined", name)
	}
	return ref.Value.VisitJSON(value)
}
