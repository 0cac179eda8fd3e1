package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/validator"
	"gopkg.in/yaml.v3"
)

// Batch is a set of decoded submissions read from one file.
type Batch struct {
	Submissions []validator.Submission
}

// ForTemplate groups the batch's preferences for one template. Submissions
// without a template id are attributed to every template.
func (b Batch) ForTemplate(templateID string) domain.Submissions {
	subs := domain.Submissions{}
	for _, s := range b.Submissions {
		if s.Preference.TemplateID == "" || s.Preference.TemplateID == templateID {
			subs.Add(s.Preference)
		}
	}
	return subs
}

// TemplateIDs returns the distinct template ids named by the batch, in file order.
func (b Batch) TemplateIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range b.Submissions {
		id := s.Preference.TemplateID
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadSubmissions reads a submissions file.
func LoadSubmissions(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to read submissions %s: %w", path, err)
	}
	return ParseSubmissions(data)
}

// ParseSubmissions decodes a document with a top-level "submissions" list.
// Each entry takes any shape validator.Decode accepts. Every malformed entry is
// reported.
func ParseSubmissions(data []byte) (Batch, error) {
	var raw struct {
		Submissions []map[string]any `yaml:"submissions"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Batch{}, fmt.Errorf("failed to parse submissions: %w", err)
	}

	var (
		batch Batch
		errs  []error
	)
	for i, entry := range raw.Submissions {
		sub, err := validator.Decode(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("submission %d: %w", i+1, err))
			continue
		}
		batch.Submissions = append(batch.Submissions, sub)
	}
	if len(errs) > 0 {
		return Batch{}, errors.Join(errs...)
	}
	return batch, nil
}
