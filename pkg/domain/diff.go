package domain

import "reflect"

// ResultDiff represents the changes between two results of the same template.
// It is designed to be serialized to JSON for partial updates on the client.
type ResultDiff struct {
	// TemplateID is always present to identify the target.
	TemplateID string `json:"template_id"`

	// Status is set when the overall status changed.
	Status *Status `json:"status,omitempty"`

	// Groups contains only the groups whose state or outcome changed, in catalog order.
	Groups []GroupOutcome `json:"groups,omitempty"`
}

// Diff calculates the difference between oldResult and newResult.
// If oldResult is nil, it returns a diff carrying the entire newResult (initial load).
// It returns nil when nothing changed.
func Diff(oldResult, newResult *TemplateResult) *ResultDiff {
	if newResult == nil {
		return nil
	}

	diff := &ResultDiff{TemplateID: newResult.TemplateID}

	if oldResult == nil || oldResult.Status != newResult.Status {
		status := newResult.Status
		diff.Status = &status
	}

	for _, g := range newResult.Groups {
		if oldResult != nil {
			if prev, ok := oldResult.Group(g.GroupID); ok && reflect.DeepEqual(prev, g) {
				continue
			}
		}
		diff.Groups = append(diff.Groups, g)
	}

	if diff.Status == nil && len(diff.Groups) == 0 {
		return nil
	}
	return diff
}
