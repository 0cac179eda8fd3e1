package domain

// Variant is one candidate wording for a clause group.
type Variant struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Text string `json:"text" yaml:"text" mapstructure:"text"`
}

// ClauseGroup is a negotiable section of a contract template.
// Variant order is the catalog order; it drives output ordering, never ranking.
type ClauseGroup struct {
	ID       string    `json:"id" yaml:"id" mapstructure:"id"`
	Label    string    `json:"label" yaml:"label" mapstructure:"label"`
	Variants []Variant `json:"variants" yaml:"variants" mapstructure:"variants"`
}

// VariantIDs returns the variant ids in catalog order.
func (g ClauseGroup) VariantIDs() []string {
	ids := make([]string, len(g.Variants))
	for i, v := range g.Variants {
		ids[i] = v.ID
	}
	return ids
}

// HasVariant reports whether id names a variant of the group.
func (g ClauseGroup) HasVariant(id string) bool {
	for _, v := range g.Variants {
		if v.ID == id {
			return true
		}
	}
	return false
}

// Template is an ordered collection of clause groups.
type Template struct {
	ID     string        `json:"id" yaml:"id" mapstructure:"id"`
	Label  string        `json:"label" yaml:"label" mapstructure:"label"`
	Groups []ClauseGroup `json:"groups" yaml:"groups" mapstructure:"groups"`
}

// Group looks up a clause group by id.
func (t Template) Group(id string) (ClauseGroup, bool) {
	for _, g := range t.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return ClauseGroup{}, false
}
