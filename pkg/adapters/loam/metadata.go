package loam

import "github.com/aretw0/concord/pkg/domain"

const (
	KindTemplate = "template"
	KindGroup    = "group"
)

// DocumentMetadata represents the frontmatter of a catalog document.
// A template document lists its clause groups; each entry is either an inline
// group or the id of a group document to import. A group document (kind: group)
// carries its variants directly.
type DocumentMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Kind  string `json:"kind" mapstructure:"kind"`
	Label string `json:"label" mapstructure:"label"`

	// Template documents
	Groups []any `json:"groups" mapstructure:"groups"`

	// Group documents
	Variants []domain.Variant `json:"variants" mapstructure:"variants"`
}

func (m DocumentMetadata) kind() string {
	if m.Kind == "" {
		return KindTemplate
	}
	return m.Kind
}
